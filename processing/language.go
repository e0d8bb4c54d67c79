package processing

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultLanguage is returned when nothing else matches.
const DefaultLanguage = "english"

// scriptBlockShare is the fraction of (non-digit, non-punctuation)
// characters a non-Latin script must reach to claim the text. A heuristic
// knob, not exact science. Tune it rather than trusting it.
const scriptBlockShare = 0.30

// LanguageClassifier decides which synthesis language a script is written
// in. The heuristic implementation below is one strategy; callers depend
// only on this interface so a real language-ID library can be swapped in.
type LanguageClassifier interface {
	Detect(text string) string
}

// HeuristicClassifier classifies by Unicode block share first, then by
// whole-word checks for common function words of the supported Latin
// languages. First match wins.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

type scriptBlock struct {
	tag string
	in  func(r rune) bool
}

// Ordered: Japanese kana must be checked before Han, since Japanese text
// mixes both while Chinese text has no kana.
var scriptBlocks = []scriptBlock{
	{"arabic", func(r rune) bool { return unicode.Is(unicode.Arabic, r) }},
	{"hebrew", func(r rune) bool { return unicode.Is(unicode.Hebrew, r) }},
	{"hindi", func(r rune) bool { return unicode.Is(unicode.Devanagari, r) }},
	{"japanese", func(r rune) bool { return unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) }},
	{"korean", func(r rune) bool { return unicode.Is(unicode.Hangul, r) }},
	{"chinese", func(r rune) bool { return unicode.Is(unicode.Han, r) }},
	{"greek", func(r rune) bool { return unicode.Is(unicode.Greek, r) }},
	{"russian", func(r rune) bool { return unicode.Is(unicode.Cyrillic, r) }},
}

// Function-word checks for Latin-script languages, first match wins. Words
// were picked to avoid collisions with English and with each other where
// practical. RE2's \b is ASCII-only, so a bare ASCII word that prefixes a
// diacritic-bearing word in a sibling language ("est" inside "está") would
// shadow it; keep such words out of the lists.
var latinWordChecks = []struct {
	tag string
	re  *regexp.Regexp
}{
	{"spanish", regexp.MustCompile(`\b(el|los|las|una|está|estás|pero|porque|gracias|hola|qué|cómo|más|muy|también|usted)\b`)},
	{"french", regexp.MustCompile(`\b(les|une|c'est|vous|nous|avec|pour|dans|je|mais|être|était|bonjour|merci|très)\b`)},
	{"german", regexp.MustCompile(`\b(der|das|und|ist|ich|nicht|mit|ein|eine|auch|für|werden|haben|danke|hallo|über)\b`)},
	{"portuguese", regexp.MustCompile(`\b(você|não|uma|com|para|mas|isso|muito|obrigado|olá|também|está|são)\b`)},
	{"italian", regexp.MustCompile(`\b(gli|una|è|sono|che|per|non|con|ciao|grazie|anche|molto|questo|perché)\b`)},
	{"dutch", regexp.MustCompile(`\b(het|een|ik|niet|met|voor|maar|ook|dat|zijn|hebben|naar|wordt)\b`)},
	{"polish", regexp.MustCompile(`\b(jest|nie|się|jak|ale|czy|dziękuję|cześć|bardzo|można|tylko)\b`)},
	{"turkish", regexp.MustCompile(`\b(bir|ve|bu|için|ile|ama|ben|sen|değil|evet|merhaba|teşekkür|çok)\b`)},
}

// Detect classifies text into a language tag. Digits, whitespace and basic
// punctuation are ignored; an empty remnant yields the default tag.
func (c *HeuristicClassifier) Detect(text string) string {
	var letters []rune
	for _, r := range text {
		if unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		letters = append(letters, r)
	}
	if len(letters) == 0 {
		return DefaultLanguage
	}

	total := float64(len(letters))
	for _, block := range scriptBlocks {
		count := 0
		for _, r := range letters {
			if block.in(r) {
				count++
			}
		}
		if float64(count)/total > scriptBlockShare {
			return block.tag
		}
	}

	lower := strings.ToLower(text)
	for _, check := range latinWordChecks {
		if check.re.MatchString(lower) {
			return check.tag
		}
	}

	return DefaultLanguage
}

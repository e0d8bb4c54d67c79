package captions

import "strings"

// DefaultStyleName is used when a request names no style or an unknown one.
const DefaultStyleName = "classic"

// Style is a purely presentational caption preset: font, color, outline.
// Colors are ASS &HBBGGRR values.
type Style struct {
	Name            string
	Font            string
	FontSize        int
	PrimaryColour   string
	HighlightColour string
	OutlineColour   string
	Outline         int
	Bold            bool
}

// The preset table. Adding a look means adding a row, not a branch.
var styles = map[string]Style{
	"classic": {
		Name:            "classic",
		Font:            "Impact",
		FontSize:        96,
		PrimaryColour:   "&H00FFFFFF",
		HighlightColour: "&H0000FFFF",
		OutlineColour:   "&H00000000",
		Outline:         4,
		Bold:            true,
	},
	"pop": {
		Name:            "pop",
		Font:            "Montserrat",
		FontSize:        88,
		PrimaryColour:   "&H00FFFFFF",
		HighlightColour: "&H00FF8800",
		OutlineColour:   "&H00222222",
		Outline:         3,
		Bold:            true,
	},
	"minimal": {
		Name:            "minimal",
		Font:            "Helvetica",
		FontSize:        72,
		PrimaryColour:   "&H00FFFFFF",
		HighlightColour: "&H00FFFFFF",
		OutlineColour:   "&H00000000",
		Outline:         1,
		Bold:            false,
	},
	"vibrant": {
		Name:            "vibrant",
		Font:            "Arial Black",
		FontSize:        92,
		PrimaryColour:   "&H0000FFFF",
		HighlightColour: "&H00FF00FF",
		OutlineColour:   "&H00000000",
		Outline:         4,
		Bold:            true,
	},
}

// StyleByName resolves a preset, falling back to the default for unknown
// names rather than erroring.
func StyleByName(name string) Style {
	if s, ok := styles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return styles[DefaultStyleName]
}

// StyleNames lists the available presets.
func StyleNames() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	return names
}

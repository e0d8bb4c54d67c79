package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Surya-blippi/Livio-sub001/compositor"
	"github.com/Surya-blippi/Livio-sub001/processing"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// MaxTTSChars is the vendor's per-request text limit.
	MaxTTSChars = processing.DefaultMaxChunkChars

	defaultMaxRetries   = 3
	defaultRetryBackoff = time.Second
)

// voiceByLanguage maps a detected language tag to the vendor voice used
// for narration. Unlisted languages use the English voice.
var voiceByLanguage = map[string]string{
	"english":    "aura-asteria-en",
	"spanish":    "aura-celeste-es",
	"french":     "aura-pandora-fr",
	"german":     "aura-orion-de",
	"portuguese": "aura-luna-pt",
	"hindi":      "aura-kavya-hi",
	"arabic":     "aura-amira-ar",
	"japanese":   "aura-hana-ja",
	"korean":     "aura-yuna-ko",
	"chinese":    "aura-mei-zh",
}

// VoiceForLanguage returns the narration voice for a language tag.
func VoiceForLanguage(language string) string {
	if v, ok := voiceByLanguage[language]; ok {
		return v
	}
	return voiceByLanguage[processing.DefaultLanguage]
}

// Speech converts scripts to narration audio over the vendor's HTTP API.
// Scripts longer than the vendor's request limit are chunked, synthesized
// per chunk, and concatenated back into one file.
type Speech struct {
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	Classifier   processing.LanguageClassifier
	MaxRetries   int
	RetryBackoff time.Duration
}

func NewSpeech(baseURL, apiKey string) *Speech {
	return &Speech{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		Classifier:   processing.NewHeuristicClassifier(),
		MaxRetries:   defaultMaxRetries,
		RetryBackoff: defaultRetryBackoff,
	}
}

// Result is the synthesized narration for one script.
type Result struct {
	AudioPath string
	Duration  float64
	Language  string
	Voice     string
}

// Synthesize renders the script to an mp3 under workDir and reports its
// measured duration.
func (s *Speech) Synthesize(ctx context.Context, script, workDir string) (Result, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return Result{}, fmt.Errorf("empty script")
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create work dir: %w", err)
	}

	language := processing.DefaultLanguage
	if s.Classifier != nil {
		language = s.Classifier.Detect(script)
	}
	voice := VoiceForLanguage(language)

	chunks := processing.Chunk(script, MaxTTSChars)
	log.Printf("Synthesizing %d chunk(s), language=%s voice=%s", len(chunks), language, voice)

	chunkPaths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(workDir, fmt.Sprintf("tts_chunk_%03d.mp3", i))
		if err := s.synthesizeChunk(ctx, chunk, voice, path); err != nil {
			return Result{}, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		chunkPaths = append(chunkPaths, path)
	}

	audioPath := filepath.Join(workDir, "narration.mp3")
	if len(chunkPaths) == 1 {
		if err := os.Rename(chunkPaths[0], audioPath); err != nil {
			return Result{}, fmt.Errorf("failed to place narration file: %w", err)
		}
	} else if err := concatAudio(chunkPaths, audioPath); err != nil {
		return Result{}, err
	}

	duration, err := compositor.ProbeDuration(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to probe narration duration: %w", err)
	}

	return Result{AudioPath: audioPath, Duration: duration, Language: language, Voice: voice}, nil
}

// synthesizeChunk calls the vendor once per attempt, retrying transient
// failures with doubling backoff. Client errors (4xx) fail immediately.
func (s *Speech) synthesizeChunk(ctx context.Context, text, voice, outPath string) error {
	backoff := s.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying TTS chunk (attempt %d/%d): %v", attempt, retries, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		retryable, err := s.requestChunk(ctx, text, voice, outPath)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("speech synthesis failed after %d retries: %w", retries, lastErr)
}

// requestChunk performs a single vendor request. The bool reports whether
// the failure is worth retrying.
func (s *Speech) requestChunk(ctx context.Context, text, voice, outPath string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return false, err
	}

	url := fmt.Sprintf("%s/v1/speak?model=%s", strings.TrimRight(s.BaseURL, "/"), voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Token "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		// Network errors and timeouts are transient.
		return true, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return retryable, fmt.Errorf("speech vendor returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return true, fmt.Errorf("failed to read speech response: %w", err)
	}
	return false, nil
}

// concatAudio joins chunk files in order with the concat demuxer.
func concatAudio(paths []string, outPath string) error {
	listPath := outPath + ".txt"
	var list strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&list, "file '%s'\n", p)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	err := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("failed to concatenate narration chunks: %w", err)
	}
	return nil
}

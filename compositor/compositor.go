package compositor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Surya-blippi/Livio-sub001/models"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Output constants (9:16 vertical).
const (
	VideoWidth   = 1080
	VideoHeight  = 1920
	VideoFPS     = 30
	VideoCodec   = "libx264"
	AudioCodec   = "aac"
	AudioBitrate = "192k"
	VideoPreset  = "fast"
)

// Compositor renders scene visuals with ffmpeg and assembles them into the
// final timeline.
type Compositor struct {
	Width   int
	Height  int
	FPS     int
	WorkDir string
}

// New returns a Compositor with the default vertical output format,
// writing intermediates under workDir.
func New(workDir string) *Compositor {
	return &Compositor{
		Width:   VideoWidth,
		Height:  VideoHeight,
		FPS:     VideoFPS,
		WorkDir: workDir,
	}
}

// TempFile returns a path for an intermediate file under the work dir.
func (c *Compositor) TempFile(name string) string {
	return filepath.Join(c.WorkDir, name)
}

// RenderScene renders one scene's visual over its allotted frame range and
// muxes in that scene's slice of the narration audio.
//
// Face scenes play the pre-rendered lip-synced clip; a clip shorter than
// the slot loops from its start (looping was chosen over freezing the last
// frame so the avatar never visibly stalls mid-sentence). Asset scenes get
// the plan's Ken Burns effect.
func (c *Compositor) RenderScene(ctx context.Context, plan ScenePlan, st models.SceneTiming, audioPath, outPath string) error {
	duration := float64(plan.Frames) / float64(c.FPS)

	visualPath, err := c.fetchVisual(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to fetch visual for scene %d: %w", plan.SceneIndex, err)
	}

	var video *ffmpeg.Stream
	if plan.Scene.Type == models.SceneTypeFace {
		video = ffmpeg.Input(visualPath, ffmpeg.KwArgs{"stream_loop": -1, "t": fmt.Sprintf("%.3f", duration)}).
			Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=increase", c.Width, c.Height)}).
			Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d", c.Width, c.Height)}).
			Filter("fps", ffmpeg.Args{strconv.Itoa(c.FPS)})
	} else {
		video = ffmpeg.Input(visualPath, ffmpeg.KwArgs{"loop": 1, "t": fmt.Sprintf("%.3f", duration)}).
			Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=increase", c.Width*2, c.Height*2)}).
			Filter("zoompan", ffmpeg.Args{c.zoomPanArgs(plan.Effect, plan.Frames)})
	}

	audio := ffmpeg.Input(audioPath, ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.3f", plan.StartTime),
		"t":  fmt.Sprintf("%.3f", duration),
	})

	err = ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outPath, ffmpeg.KwArgs{
		"c:v":     VideoCodec,
		"c:a":     AudioCodec,
		"b:a":     AudioBitrate,
		"preset":  VideoPreset,
		"pix_fmt": "yuv420p",
		"r":       c.FPS,
		"t":       fmt.Sprintf("%.3f", duration),
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg failed rendering scene %d: %w", plan.SceneIndex, err)
	}
	return nil
}

// zoomPanArgs builds the zoompan filter argument for an effect. All three
// parameters interpolate linearly over the scene's frames; min(on/d, 1)
// clamps them at the boundary value.
func (c *Compositor) zoomPanArgs(e Effect, frames int) string {
	progress := fmt.Sprintf("min(on/%d\\,1)", frames)
	z := fmt.Sprintf("%.4f+%.4f*%s", e.ZoomFrom, e.ZoomTo-e.ZoomFrom, progress)
	x := fmt.Sprintf("(iw-iw/zoom)*(%.4f+%.4f*%s)", e.PanXFrom, e.PanXTo-e.PanXFrom, progress)
	y := fmt.Sprintf("(ih-ih/zoom)*(%.4f+%.4f*%s)", e.PanYFrom, e.PanYTo-e.PanYFrom, progress)
	return fmt.Sprintf("z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d", z, x, y, frames, c.Width, c.Height, c.FPS)
}

// fetchVisual resolves the scene's media URL to a local file, downloading
// it once per job.
func (c *Compositor) fetchVisual(ctx context.Context, plan ScenePlan) (string, error) {
	url := plan.Scene.AssetURL
	if url == "" {
		return "", fmt.Errorf("scene %d has no asset URL", plan.SceneIndex)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return url, nil
	}

	ext := ".jpg"
	if plan.Scene.Type == models.SceneTypeFace {
		ext = ".mp4"
	}
	local := c.TempFile(fmt.Sprintf("visual_%d%s", plan.SceneIndex, ext))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := DownloadFile(ctx, url, local); err != nil {
		return "", err
	}
	return local, nil
}

// Concat joins scene renders back-to-back with the concat demuxer. The
// inputs share one codec/format, so streams are copied, not re-encoded.
func (c *Compositor) Concat(paths []string, outPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no scene renders to concatenate")
	}

	listPath := c.TempFile("concat.txt")
	var lines []string
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("file '%s'", filepath.ToSlash(p)))
	}
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	err := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}
	return nil
}

// BurnCaptions overlays an ASS subtitle file onto the video.
func (c *Compositor) BurnCaptions(videoPath, assPath, outPath string) error {
	assArg := strings.ReplaceAll(filepath.ToSlash(assPath), ":", "\\:")

	in := ffmpeg.Input(videoPath)
	withSubs := in.Video().Filter("ass", ffmpeg.Args{assArg})

	err := ffmpeg.Output([]*ffmpeg.Stream{withSubs, in.Audio()}, outPath, ffmpeg.KwArgs{
		"c:v":    VideoCodec,
		"c:a":    "copy",
		"preset": VideoPreset,
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg caption burn failed: %w", err)
	}
	return nil
}

// musicVolume keeps background music well under the narration.
const musicVolume = "0.08"

// MixMusic loops background music under the video's narration track. The
// mix ends with the video, not the music.
func (c *Compositor) MixMusic(videoPath, musicPath, outPath string) error {
	video := ffmpeg.Input(videoPath)
	music := ffmpeg.Input(musicPath, ffmpeg.KwArgs{"stream_loop": -1})

	quiet := music.Audio().Filter("volume", ffmpeg.Args{musicVolume})
	mixed := ffmpeg.Filter([]*ffmpeg.Stream{video.Audio(), quiet}, "amix",
		ffmpeg.Args{}, ffmpeg.KwArgs{"inputs": 2, "duration": "first", "dropout_transition": 0})

	err := ffmpeg.Output([]*ffmpeg.Stream{video.Video(), mixed}, outPath, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      AudioCodec,
		"b:a":      AudioBitrate,
		"shortest": "",
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg music mix failed: %w", err)
	}
	return nil
}

// ProbeDuration reads a media file's duration in seconds via ffprobe.
func ProbeDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	var probed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probed); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(probed.Format.Duration, 64)
}

// downloadClient bounds the whole transfer so a stalled CDN cannot hang a
// render step indefinitely.
var downloadClient = &http.Client{Timeout: 2 * time.Minute}

// DownloadFile fetches a URL to a local path.
func DownloadFile(ctx context.Context, url string, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// Package extractor samples a video into timestamped frames with ffmpeg.
// It is the boundary collaborator feeding the scoring pipeline: everything
// downstream only sees the ordered Frame sequence it produces.
package extractor

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bdougie/shotcurator/internal/models"
)

// FileSource is a PixelSource backed by an extracted frame file on disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Image() (image.Image, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame '%s': %w", s.path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame '%s': %w", s.path, err)
	}
	return img, nil
}

// Extractor runs ffmpeg to sample frames at a fixed interval.
type Extractor struct {
	interval int // seconds between samples
	logger   *slog.Logger
}

func New(interval int, logger *slog.Logger) *Extractor {
	if interval <= 0 {
		interval = 1
	}
	return &Extractor{interval: interval, logger: logger}
}

// ExtractFrames samples videoPath into outputDir/<video name>/ and returns
// the ordered frame sequence plus the probed video context. Frames already on
// disk from an earlier run are reused instead of re-extracted.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, outputDir string) ([]models.Frame, models.VideoContext, error) {
	vctx := models.VideoContext{Filename: filepath.Base(videoPath)}

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, vctx, fmt.Errorf("video file does not exist at path: '%s'", videoPath)
	}

	videoName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	frameDirPath := filepath.Join(outputDir, videoName)

	if err := e.probe(ctx, videoPath, &vctx); err != nil {
		e.logger.Warn("could not probe video metadata", "err", err)
	}

	if existing := listFrameFiles(frameDirPath); len(existing) > 0 {
		e.logger.Info("frames already exist, skipping extraction",
			"dir", frameDirPath,
			"count", len(existing),
		)
		return e.toFrames(frameDirPath, existing), vctx, nil
	}

	if err := os.MkdirAll(frameDirPath, 0755); err != nil {
		return nil, vctx, fmt.Errorf("failed to create frame directory '%s': %w", frameDirPath, err)
	}

	e.logger.Info("extracting frames",
		"video", videoPath,
		"dir", frameDirPath,
		"interval_sec", e.interval,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", e.interval),
		fmt.Sprintf("%s/frame_%%04d.jpg", frameDirPath),
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, vctx, fmt.Errorf("ffmpeg failed: %w\noutput: %s", err, string(output))
	}

	names := listFrameFiles(frameDirPath)
	if len(names) == 0 {
		return nil, vctx, fmt.Errorf("no frames extracted from '%s'", videoPath)
	}
	return e.toFrames(frameDirPath, names), vctx, nil
}

// toFrames maps sorted frame filenames onto Frame records. The ffmpeg output
// index doubles as the stable frame ID and fixes the timestamp, so IDs sort
// the same lexically and temporally.
func (e *Extractor) toFrames(frameDirPath string, names []string) []models.Frame {
	frames := make([]models.Frame, 0, len(names))
	for _, name := range names {
		num := 0
		if _, err := fmt.Sscanf(name, "frame_%04d.jpg", &num); err != nil {
			e.logger.Warn("skipping unrecognized frame file", "name", name)
			continue
		}
		frames = append(frames, models.Frame{
			ID:        strings.TrimSuffix(name, ".jpg"),
			Timestamp: float64((num - 1) * e.interval),
			Pixels:    NewFileSource(filepath.Join(frameDirPath, name)),
		})
	}
	return frames
}

func listFrameFiles(dir string) []string {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(strings.ToLower(file.Name()), ".jpg") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)
	return names
}

// probe fills duration and dimensions via ffprobe.
func (e *Extractor) probe(ctx context.Context, videoPath string, vctx *models.VideoContext) error {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "csv=p=0",
		videoPath,
	).Output()
	if err != nil {
		return fmt.Errorf("ffprobe: %w", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) == 2 {
			vctx.Width, _ = strconv.Atoi(fields[0])
			vctx.Height, _ = strconv.Atoi(fields[1])
		} else if len(fields) == 1 && fields[0] != "" {
			vctx.DurationSec, _ = strconv.ParseFloat(fields[0], 64)
		}
	}
	return nil
}

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// FFprobe implements Prober by shelling out to ffprobe
type FFprobe struct {
	path string
}

// NewFFprobe creates a prober using the given ffprobe binary
func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{path: path}
}

// probeFormat is the subset of ffprobe's JSON output we read
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the audio duration in seconds
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())
	}

	var probed probeFormat
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return 0, fmt.Errorf("ffprobe output unreadable: %w", err)
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported no duration: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %v", duration)
	}

	return duration, nil
}

// FFmpeg implements Transcoder by shelling out to ffmpeg
type FFmpeg struct {
	path string
}

// NewFFmpeg creates a transcoder using the given ffmpeg binary
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// Transcode converts inputPath to MP3 at 44.1 kHz / 128 kbps. Channel
// layout passes through for mono and stereo sources.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.path,
		"-y",
		"-i", inputPath,
		"-vn",
		"-ar", "44100",
		"-b:a", "128k",
		"-codec:a", "libmp3lame",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}

	return nil
}

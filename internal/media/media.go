// Package media wraps the external codec tooling. Probing and transcoding
// are consumed as black boxes behind interfaces so the upload pipeline can
// be tested without ffmpeg installed.
package media

import (
	"context"
)

// Prober reads the true audio duration of a staged file. Files the
// prober cannot parse are not audio, whatever their sniffed MIME says.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Transcoder converts a staged file to the fixed output format
// (MP3, 44.1 kHz, 128 kbps). The conversion runs to completion or
// failure; there is no mid-flight cancellation beyond ctx.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// OutputExtension is the extension of every transcoded file
const OutputExtension = ".mp3"

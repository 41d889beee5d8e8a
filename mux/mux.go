// Package mux combines a video-only and an audio-only file into one container without re-encoding.
package mux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/alanbriolat/instantube"
)

// A Muxer writes outputPath from the streams of videoPath and audioPath.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// FFmpeg runs the ffmpeg binary found in PATH.
type FFmpeg struct {
	log      *zap.SugaredLogger
	lookPath func(string) (string, error)
}

var _ Muxer = (*FFmpeg)(nil)

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{
		log:      zap.S().Named("mux"),
		lookPath: exec.LookPath,
	}
}

// Available reports whether ffmpeg can be found.
func (m *FFmpeg) Available() bool {
	_, err := m.lookPath("ffmpeg")
	return err == nil
}

// command copies both tracks as they are; -strict -2 allows codecs that are still "experimental" in mp4, and -n
// refuses to overwrite. The process is killed if ctx is cancelled.
func (m *FFmpeg) command(ctx context.Context, videoPath, audioPath, outputPath string) *ffmpeg.Stream {
	video := ffmpeg.Input(videoPath)
	audio := ffmpeg.Input(audioPath)
	return ffmpeg.OutputContext(ctx, []*ffmpeg.Stream{video, audio}, outputPath, ffmpeg.KwArgs{
		"c":      "copy",
		"strict": "-2",
	}).GlobalArgs("-n", "-hide_banner", "-loglevel", "error")
}

// partPath is where ffmpeg writes before the result is moved into place. It keeps the output's extension so ffmpeg
// still picks the container from it.
func partPath(outputPath string) string {
	dir, base := filepath.Split(outputPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".part"+ext)
}

// Mux writes to a private part file and only moves it to outputPath once ffmpeg has succeeded, so a failed or
// cancelled run never leaves anything at outputPath, and nothing already there is ever replaced.
func (m *FFmpeg) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.Available() {
		return instantube.ErrFFmpegNotFound
	}
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%w: %s", instantube.ErrOutputAlreadyExists, outputPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	part := partPath(outputPath)
	// Left over from an interrupted run of our own
	if err := os.Remove(part); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	defer func() {
		if err := os.Remove(part); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.log.Warnf("failed to remove %s: %v", part, err)
		}
	}()

	stream := m.command(ctx, videoPath, audioPath, part)
	m.log.Debugf("running %s", shellescape.QuoteCommand(stream.Compile().Args))
	var stderr bytes.Buffer
	if err := stream.WithErrorOutput(&stderr).Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return m.publish(part, outputPath)
}

// publish moves the finished part file to outputPath without replacing anything that appeared there meanwhile.
func (m *FFmpeg) publish(part, outputPath string) error {
	err := os.Link(part, outputPath)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%w: %s", instantube.ErrOutputAlreadyExists, outputPath)
	}
	// Some filesystems have no hard links
	m.log.Debugf("link %s: %v, renaming instead", outputPath, err)
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%w: %s", instantube.ErrOutputAlreadyExists, outputPath)
	}
	return os.Rename(part, outputPath)
}

package mux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/instantube"
)

func TestFFmpeg_Command(t *testing.T) {
	assert := assert_.New(t)

	args := NewFFmpeg().command(context.Background(), "in_video.webm", "in_audio.webm", "out.mp4").Compile().Args
	assert.Equal("ffmpeg", filepath.Base(args[0]))
	assert.Subset(args, []string{"-i", "in_video.webm", "in_audio.webm", "-c", "copy", "-strict", "-2", "-n", "out.mp4"})
	assert.NotContains(args, "-y")
	assert.Less(indexOf(args, "in_video.webm"), indexOf(args, "in_audio.webm"), "video must be the first input")
}

func indexOf(args []string, s string) int {
	for i, arg := range args {
		if arg == s {
			return i
		}
	}
	return -1
}

func TestFFmpeg_NotFound(t *testing.T) {
	assert := assert_.New(t)

	m := NewFFmpeg()
	m.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.False(m.Available())
	err := m.Mux(context.Background(), "v.webm", "a.webm", filepath.Join(t.TempDir(), "out.mp4"))
	assert.ErrorIs(err, instantube.ErrFFmpegNotFound)
}

func TestFFmpeg_OutputExists(t *testing.T) {
	assert := assert_.New(t)

	m := NewFFmpeg()
	m.lookPath = func(string) (string, error) { return "/usr/bin/ffmpeg", nil }
	output := filepath.Join(t.TempDir(), "out.mp4")
	assert.Nil(os.WriteFile(output, []byte("existing"), 0644))

	err := m.Mux(context.Background(), "v.webm", "a.webm", output)
	assert.ErrorIs(err, instantube.ErrOutputAlreadyExists)
	data, _ := os.ReadFile(output)
	assert.Equal("existing", string(data), "existing output must not be touched")
}

func TestFFmpeg_Cancelled(t *testing.T) {
	assert := assert_.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(NewFFmpeg().Mux(ctx, "v", "a", "o"), context.Canceled)
}

func TestPartPath(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal(filepath.Join("dl", ".Song_720p_60fps.part.mp4"), partPath(filepath.Join("dl", "Song_720p_60fps.mp4")))
}

// fakeFFmpeg puts a shell script called ffmpeg first on PATH. The script sees ffmpeg's arguments; $out is the last
// one, the file being written.
func fakeFFmpeg(t *testing.T, body string) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\nfor out; do :; done\n" + body + "\n"
	require_.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestFFmpeg_Mux(t *testing.T) {
	assert := assert_.New(t)
	fakeFFmpeg(t, `printf muxed > "$out"`)
	output := filepath.Join(t.TempDir(), "out.mp4")

	assert.NoError(NewFFmpeg().Mux(context.Background(), "v.webm", "a.webm", output))
	data, err := os.ReadFile(output)
	assert.NoError(err)
	assert.Equal("muxed", string(data))
	assert.NoFileExists(partPath(output))
}

func TestFFmpeg_MuxFailed(t *testing.T) {
	assert := assert_.New(t)
	fakeFFmpeg(t, `printf half > "$out"; echo "Invalid data found" >&2; exit 1`)
	output := filepath.Join(t.TempDir(), "out.mp4")

	err := NewFFmpeg().Mux(context.Background(), "v.webm", "a.webm", output)
	assert.Error(err)
	assert.Contains(err.Error(), "Invalid data found")
	assert.NoFileExists(output)
	assert.NoFileExists(partPath(output))
}

func TestFFmpeg_OutputAppearsDuringRun(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "out.mp4")
	// Someone else creates the output while ffmpeg is running
	fakeFFmpeg(t, `printf muxed > "$out"; printf theirs > "`+output+`"`)

	err := NewFFmpeg().Mux(context.Background(), "v.webm", "a.webm", output)
	assert.ErrorIs(err, instantube.ErrOutputAlreadyExists)
	data, _ := os.ReadFile(output)
	assert.Equal("theirs", string(data), "a file this run didn't create must survive")
	assert.NoFileExists(partPath(output))
}

func TestFFmpeg_CancelledWhileRunning(t *testing.T) {
	assert := assert_.New(t)
	fakeFFmpeg(t, `printf half > "$out"; exec sleep 10`)
	output := filepath.Join(t.TempDir(), "out.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := NewFFmpeg().Mux(ctx, "v.webm", "a.webm", output)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Less(time.Since(start), 5*time.Second, "ffmpeg should be killed on cancel")
	assert.NoFileExists(output)
	assert.NoFileExists(partPath(output))
}

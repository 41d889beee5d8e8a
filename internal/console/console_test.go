package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/internal/session"
)

type nopHandle struct{}

func (*nopHandle) Ext() string {
	return "webm"
}

func (*nopHandle) Download(context.Context, string, instantube.ProgressFunc) error {
	return nil
}

func testCatalog(t *testing.T) *instantube.Catalog {
	catalog, err := instantube.NewCatalog("https://video.test/x", &instantube.Listing{
		Title: "Some Video",
		Streams: []instantube.StreamInfo{
			{Kind: instantube.StreamVideo, MimeType: "video/webm", Height: 1080, FrameRate: 30, Handle: &nopHandle{}},
			{Kind: instantube.StreamVideo, MimeType: "video/webm", Height: 360, FrameRate: 30, Handle: &nopHandle{}},
			{Kind: instantube.StreamAudio, MimeType: "audio/webm", Bitrate: 128000, Handle: &nopHandle{}},
		},
	}, "webm")
	require_.NoError(t, err)
	return catalog
}

func TestParseCommand(t *testing.T) {
	assert := assert_.New(t)

	cases := map[string]Command{
		"":      {Kind: CommandPoll},
		"  \n":  {Kind: CommandPoll},
		"r":     {Kind: CommandRetry},
		"Retry": {Kind: CommandRetry},
		"q":     {Kind: CommandQuit},
		"exit":  {Kind: CommandQuit},
		"1":     {Kind: CommandDownload, Index: 0},
		" 12 ":  {Kind: CommandDownload, Index: 11},
	}
	for line, expected := range cases {
		cmd, err := ParseCommand(line)
		if assert.NoError(err, line) {
			assert.Equal(expected, cmd, line)
		}
	}

	for _, line := range []string{"0", "-1", "abc", "1.5"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(err, ErrUnknownCommand, line)
	}
}

func TestConsole_Presenter(t *testing.T) {
	assert := assert_.New(t)
	var out bytes.Buffer
	c := New(&out)

	c.OnIdle()
	assert.Equal("Waiting for a video URL on the clipboard...\n", out.String())

	out.Reset()
	catalog := testCatalog(t)
	c.OnCatalogReady(catalog)
	assert.Equal("\nSome Video\n  1) 360p-30fps\n  2) 1080p-30fps\nEnter a number to download, r to retry, q to quit.\n", out.String())

	out.Reset()
	dir := filepath.Join("tmp", "dl")
	job := &session.Job{ID: "job", Title: "Some Video", Video: catalog.Variants()[0], Paths: instantube.JobPaths{Dir: dir}}
	c.OnDownloadStarted(job)
	assert.Equal(fmt.Sprintf("Downloading \"Some Video\" at 360p-30fps into %s\n", dir), out.String())

	out.Reset()
	c.OnDownloadProgress(session.DownloadProgress{JobID: "job", Track: session.TrackVideo, Downloaded: 0, Expected: 2048})
	c.OnDownloadProgress(session.DownloadProgress{JobID: "job", Track: session.TrackVideo, Downloaded: 1024, Expected: 2048})
	c.OnDownloadProgress(session.DownloadProgress{JobID: "job", Track: session.TrackAudio, Downloaded: 10, Expected: 0})
	assert.Contains(out.String(), "video")
	assert.Len(c.bars, 2)

	c.OnJobStateChanged("job", session.JobMuxing)
	assert.Contains(out.String(), "Merging video and audio...\n")
	assert.Empty(c.bars)

	out.Reset()
	output := filepath.Join(dir, "Some Video_360p_30fps.mp4")
	c.OnDownloadFinished(session.JobResult{JobID: "job", Output: output, Dir: dir, Size: 1500000})
	assert.Equal(
		fmt.Sprintf("Some Video_360p_30fps.mp4 Downloaded Successfully in %s (1.5 MB)\n", dir)+
			"Enter a number to download another version, r to retry, q to quit.\n",
		out.String())

	out.Reset()
	c.OnError("Error fetching video: boom")
	assert.Equal("Error fetching video: boom\n", out.String())

	out.Reset()
	c.OnIdle()
	c.OnDownloadFinished(session.JobResult{Output: output, Dir: dir, Err: errors.New("boom")})
	assert.Equal("Waiting for a video URL on the clipboard...\nError during download: boom\n", out.String())
}

type fakeController struct {
	calls []string
	err   error
}

func (f *fakeController) Poll() {
	f.calls = append(f.calls, "poll")
}

func (f *fakeController) Retry() {
	f.calls = append(f.calls, "retry")
}

func (f *fakeController) StartDownloadIndex(i int) (*session.Task, error) {
	f.calls = append(f.calls, fmt.Sprintf("download %d", i))
	return nil, f.err
}

func TestConsole_Run(t *testing.T) {
	assert := assert_.New(t)
	var out bytes.Buffer
	c := New(&out)
	s := &fakeController{err: instantube.ErrDownloadInProgress}

	in := strings.NewReader("\n2\nr\nwhat\nq\n3\n")
	err := c.Run(context.Background(), s, in)
	assert.NoError(err)
	assert.Equal([]string{"poll", "download 1", "retry"}, s.calls)
	assert.Contains(out.String(), "Error: "+instantube.ErrDownloadInProgress.Error())
	assert.Contains(out.String(), `unknown command: "what"`)
}

func TestConsole_Run_EOF(t *testing.T) {
	assert := assert_.New(t)
	c := New(&bytes.Buffer{})
	s := &fakeController{}

	assert.NoError(c.Run(context.Background(), s, strings.NewReader("1")))
	assert.Equal([]string{"download 0"}, s.calls)
}

func TestConsole_Run_Cancelled(t *testing.T) {
	assert := assert_.New(t)
	c := New(&bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// A reader that never returns keeps Run waiting until ctx is done
	r, w := io.Pipe()
	defer w.Close()
	assert.NoError(c.Run(ctx, &fakeController{}, r))
}

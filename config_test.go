package instantube

import (
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestOutputConfig_Paths(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	c := NewOutputConfig("/downloads")
	video := VideoVariant{ResolutionLabel: "720p", Height: 720, FrameRate: 60, Handle: &stringHandle{ext: "webm"}}
	audio := AudioVariant{Bitrate: 160000, Handle: &stringHandle{ext: "weba"}}

	paths, err := c.Paths("AC/DC: Live", video, audio)
	require.NoError(err)
	assert.Equal("/downloads", paths.Dir)
	assert.Equal(filepath.Join("/downloads", "AC-DC- Live_720p_60fps.mp4"), paths.Output)
	assert.Equal(filepath.Join("/downloads", "AC-DC- Live_720p_60fps_video.webm"), paths.Video)
	assert.Equal(filepath.Join("/downloads", "AC-DC- Live_720p_60fps_audio.weba"), paths.Audio)
}

func TestOutputConfig_CustomTemplate(t *testing.T) {
	assert := assert_.New(t)

	c := NewOutputConfig("out")
	tmpl, err := ParseStemTemplate("{{.Height}}-{{.Title}}")
	assert.Nil(err)
	c.StemTemplate = tmpl
	video := VideoVariant{ResolutionLabel: "1080p", Height: 1080, FrameRate: 30, Handle: &stringHandle{ext: "webm"}}
	audio := AudioVariant{Handle: &stringHandle{ext: "webm"}}

	paths, err := c.Paths("x", video, audio)
	assert.Nil(err)
	assert.Equal(filepath.Join("out", "1080-x.mp4"), paths.Output)

	tmpl, err = ParseStemTemplate("sub/{{.Title}}")
	assert.Nil(err)
	c.StemTemplate = tmpl
	_, err = c.Paths("x", video, audio)
	assert.Error(err)

	tmpl, err = ParseStemTemplate("{{.Missing}}")
	assert.Nil(err)
	c.StemTemplate = tmpl
	_, err = c.Paths("x", video, audio)
	assert.Error(err)

	_, err = ParseStemTemplate("{{")
	assert.Error(err)
}

func TestDefaultDownloadDir(t *testing.T) {
	assert := assert_.New(t)

	t.Setenv("HOME", "/home/tester")
	dir, err := DefaultDownloadDir()
	assert.Nil(err)
	assert.True(strings.HasSuffix(dir, filepath.Join("Downloads", AppName)))
}

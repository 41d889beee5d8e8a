package util

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("AC-DC - Live", SanitizeFilename("AC/DC - Live"))
	assert.Equal("what- why-", SanitizeFilename("what? why*"))
	assert.Equal("tab-separated", SanitizeFilename("tab\tseparated"))
	assert.Equal("trimmed", SanitizeFilename("  trimmed  "))
	assert.Equal("video", SanitizeFilename(""))
	assert.Equal("video", SanitizeFilename(".."))
	assert.Equal("...and more", SanitizeFilename("...and more"))
}

func TestMimeExt(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("webm", MimeExt(`video/webm; codecs="vp9"`))
	assert.Equal("mp4", MimeExt("audio/mp4"))
	assert.Equal("3gp", MimeExt("video/3gpp"))
	assert.Equal("bin", MimeExt("garbage"))
	assert.Equal("bin", MimeExt(""))
}

func TestMimeBase(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("audio/webm", MimeBase(`audio/webm; codecs="opus"`))
	assert.Equal("video/mp4", MimeBase("Video/MP4"))
}

package clipboard

import (
	"testing"

	"github.com/atotto/clipboard"
	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/instantube"
)

func TestStatic(t *testing.T) {
	assert := assert_.New(t)

	text, err := Static("https://youtu.be/dQw4w9WgXcQ").ReadText()
	assert.Nil(err)
	assert.Equal("https://youtu.be/dQw4w9WgXcQ", text)
}

func TestSystem_Unsupported(t *testing.T) {
	if !clipboard.Unsupported {
		t.Skip("clipboard utility available")
	}
	_, err := System{}.ReadText()
	assert_.ErrorIs(t, err, instantube.ErrClipboardRead)
}

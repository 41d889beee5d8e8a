// Package clipboard gives read-only access to the system clipboard's text.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/alanbriolat/instantube"
)

// System reads the desktop clipboard. On Linux this needs xclip, xsel or wl-clipboard.
type System struct{}

func (System) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("%w: no clipboard utility available", instantube.ErrClipboardRead)
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", instantube.ErrClipboardRead, err)
	}
	return text, nil
}

// Static always returns the same text, for when the clipboard is fed from somewhere else (e.g. a command-line
// argument).
type Static string

func (s Static) ReadText() (string, error) {
	return string(s), nil
}

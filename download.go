package instantube

import (
	"context"
	"fmt"
	"io"
	"os"
)

// progressCounter ignores the data but counts the bytes written through it. Put it last in an io.MultiWriter so
// failed writes aren't counted.
type progressCounter struct {
	downloaded int64
	expected   int64
	callback   ProgressFunc
}

func (p *progressCounter) Write(b []byte) (int, error) {
	n := len(b)
	p.downloaded += int64(n)
	if p.callback != nil {
		p.callback(p.downloaded, p.expected)
	}
	return n, nil
}

// SaveStream copies stream to a newly created (or truncated) file at path, reporting progress as it goes. The copy
// stops at the next read once ctx is cancelled.
func SaveStream(ctx context.Context, path string, stream io.Reader, expected int64, progress ProgressFunc) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close target file: %w", closeErr)
		}
	}()

	counter := &progressCounter{expected: expected, callback: progress}
	if expected > 0 && progress != nil {
		progress(0, expected)
	}
	if _, err = io.Copy(io.MultiWriter(f, counter), &readerContext{ctx: ctx, r: stream}); err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}
	return nil
}

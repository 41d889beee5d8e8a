package async

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert := assert_.New(t)
	a := <-Run(func() int {
		return 123
	})
	assert.Equal(123, a)
}

func TestRunResult(t *testing.T) {
	assert := assert_.New(t)
	a := <-RunResult(func() (int, error) {
		return 123, nil
	})
	assert.Equal(123, a.Value)
	assert.True(a.IsOk())

	errBoom := errors.New("boom")
	b := <-RunResult(func() (int, error) {
		return 0, errBoom
	})
	assert.True(b.IsErr())
	assert.ErrorIs(b.Error, errBoom)
}

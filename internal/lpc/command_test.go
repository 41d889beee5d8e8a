package lpc

import (
	"errors"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func TestCommand_Respond(t *testing.T) {
	assert := assert_.New(t)

	cmd := NewCommand[string, int]("720p")
	assert.Equal("720p", cmd.Arg())
	go func() {
		assert.Nil(cmd.Respond(len(cmd.Arg())))
	}()
	res, err := cmd.Wait()
	assert.Nil(err)
	assert.Equal(4, res)

	// Only the first response counts
	assert.Equal(ErrClosed, cmd.Respond(5))
	assert.Equal(ErrClosed, cmd.RespondError(errors.New("too late")))
	res, err = cmd.Wait()
	assert.Nil(err)
	assert.Equal(4, res)
}

func TestCommand_RespondError(t *testing.T) {
	assert := assert_.New(t)

	cmd := NewCommand[int, int](1)
	expected := errors.New("busy")
	assert.Nil(cmd.RespondError(expected))
	_, err := cmd.Wait()
	assert.Equal(expected, err)
}

func TestCommand_Close(t *testing.T) {
	assert := assert_.New(t)

	cmd := NewCommand[int, int](1)
	select {
	case <-cmd.Done():
		assert.Fail("command should not be done yet")
	case <-time.After(10 * time.Millisecond):
	}
	cmd.Close()
	_, err := cmd.Wait()
	assert.Equal(ErrNoResponse, err)
}

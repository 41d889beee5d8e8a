// Package lpc stands for "Local Procedure Call". It's a typed RPC-like mechanism implemented over Go channels, intended
// for communication with long-running goroutines.
package lpc

import (
	"errors"
	"sync"

	"github.com/alanbriolat/instantube/generic"
	"github.com/alanbriolat/instantube/internal/sync_"
)

var (
	ErrClosed     = errors.New("command response already sent")
	ErrNoResponse = errors.New("no response")
)

// Command carries one argument into a goroutine and one response (or error) back out.
type Command[Arg any, Response any] struct {
	mu       sync.Mutex
	arg      Arg
	response generic.Result[Response]
	done     sync_.Event
}

func NewCommand[Arg any, Response any](arg Arg) *Command[Arg, Response] {
	return &Command[Arg, Response]{
		arg:      arg,
		response: generic.Err[Response](ErrNoResponse), // Default error if closed with no response
	}
}

func (c *Command[Arg, Response]) Arg() Arg {
	return c.arg
}

func (c *Command[Arg, Response]) Respond(response Response) error {
	return c.respond(generic.Ok(response))
}

func (c *Command[Arg, Response]) RespondError(err error) error {
	return c.respond(generic.Err[Response](err))
}

func (c *Command[Arg, Response]) respond(r generic.Result[Response]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done.IsSet() {
		return ErrClosed
	}
	c.response = r
	c.Close()
	return nil
}

// Wait blocks until a response is sent or the command is closed without one.
func (c *Command[Arg, Response]) Wait() (Response, error) {
	<-c.done.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response.Parts()
}

// Done returns a channel that is closed once the command has a response.
func (c *Command[Arg, Response]) Done() <-chan struct{} {
	return c.done.Wait()
}

func (c *Command[Arg, Response]) Close() {
	c.done.Set()
}

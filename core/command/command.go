// Package command defines all commands that can be sent to an agent.
// Commands represent caller intentions and are processed serially by the
// agent's command loop.
package command

import "context"

// Command is the base interface for all commands.
type Command interface {
	// CommandName returns the name of the command for logging/debugging
	CommandName() string
}

// Request is a command that carries the caller's context and expects a
// single textual reply.
type Request interface {
	Command
	// Context returns the caller's context.
	Context() context.Context
	// Reply delivers the result to the caller. It never blocks.
	Reply(result string)
}

// baseRequest provides common implementation for requests.
type baseRequest struct {
	ctx   context.Context
	reply chan string
}

func newBaseRequest(ctx context.Context) baseRequest {
	if ctx == nil {
		ctx = context.Background()
	}
	return baseRequest{ctx: ctx, reply: make(chan string, 1)}
}

func (r *baseRequest) Context() context.Context {
	return r.ctx
}

func (r *baseRequest) Reply(result string) {
	select {
	case r.reply <- result:
	default:
	}
}

// Result returns the channel on which the reply is delivered.
func (r *baseRequest) Result() <-chan string {
	return r.reply
}

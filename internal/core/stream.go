package core

import "context"

// Turn is one prior exchange entry handed to the stream source.
type Turn struct {
	Role string
	Text string
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Fragment is one incremental piece of assistant text.
type Fragment struct {
	Text string
}

// Stream is a lazy, finite, non-restartable fragment sequence. Next
// returns io.EOF when the stream ends cleanly; any other error means the
// stream aborted and yields no further fragments.
type Stream interface {
	Next(ctx context.Context) (Fragment, error)
}

// Streamer produces a reply stream for a conversation history. It may
// fail before yielding anything, in which case RequestStream returns the
// error directly.
type Streamer interface {
	RequestStream(ctx context.Context, history []Turn) (Stream, error)
}

package queue

import "context"

// Job consumes one message type from the queue. Messages are routed to the
// job whose Type matches; Name identifies the job in logs and retry keys.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}

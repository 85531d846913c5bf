package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes the lifecycle around message handling. BeforeHandle
// may rewrite the context, message and payload; a non-nil error skips the
// handler and goes straight to error processing (OnError, DLQ, commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

// HookError classifies an error produced by a hook, e.g. "ERR_VALIDATION".
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

type ctxKey string

const (
	// CtxStartTime holds the time.Time at which handling started.
	CtxStartTime ctxKey = "kafka_hook_start_time"
	// CtxTraceID holds the correlation id extracted from message headers.
	CtxTraceID ctxKey = "kafka_hook_trace_id"
)

// TraceHook stamps the handling start time into the context and threads the
// "trace_id" header through so handlers can correlate their log lines with
// the producing side.
type TraceHook struct{}

func (TraceHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = context.WithValue(ctx, CtxStartTime, time.Now())
	for _, h := range km.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			ctx = context.WithValue(ctx, CtxTraceID, string(h.Value))
			break
		}
	}
	return ctx, km, data, nil
}

func (TraceHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

func (TraceHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

// StartTime returns the handling start time stamped by TraceHook, if any.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(CtxStartTime).(time.Time)
	return t, ok
}

// TraceID returns the correlation id stamped by TraceHook, if any.
func TraceID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxTraceID).(string)
	return id, ok
}

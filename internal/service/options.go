// Package service provides the inbox data core: the conversation and
// template stores, placeholder handling and reply suggestions.
package service

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an operation names an id that does not exist.
var ErrNotFound = errors.New("not found")

// Clock returns the current time. Stores stamp messages with it.
type Clock func() time.Time

type options struct {
	clock   Clock
	latency time.Duration
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the time source used for message timestamps.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLatency delays every store call by d before it touches the collection,
// simulating a remote backend.
func WithLatency(d time.Duration) Option {
	return func(o *options) {
		o.latency = d
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// wait blocks for the configured latency. Cancellation is only observed
// while waiting; once a call holds the lock it runs to completion.
func (o options) wait(ctx context.Context) error {
	if o.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(o.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

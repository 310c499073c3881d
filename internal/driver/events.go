package driver

import (
	"time"
)

// Status is a file's position in the instrumentation pipeline.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Event reports per-file progress during a directory run.
type Event struct {
	File         string
	Status       Status
	Err          error
	Elapsed      time.Duration
	Instrumented int
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	s.Ch <- evt
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}

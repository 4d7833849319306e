// Package ingest runs source adapters off the event loop and hands their
// records to it over a single channel.
//
// # Overview
//
// Each Source gets one worker goroutine with a small lifecycle:
//
//	Idle → Starting → Running → StopRequested → Stopped
//
// Starting calls the adapter's Start hook once. A failed start is reported as
// a KindStartError message and the worker goes straight to Stopped without
// polling. Running polls the adapter, parses each record with the configured
// entry.Interpreter, forwards the batch, and waits for the poll interval using
// Stop.Sleep, which re-checks the stop flag at least every check interval.
// Poll errors are transient: they are reported and retried on the next tick.
//
// The adapter's Stop hook runs exactly once on every exit path, including a
// failed start, an exhausted source and a recovered panic.
//
// # Shared state
//
// Workers share only the handoff channel and the Stop signal with the event
// loop. The store, filter and navigation state never leave the loop.
package ingest

import (
	"errors"
	"fmt"

	"github.com/five82/contrail/internal/entry"
)

// Source is the adapter contract for a log source.
type Source interface {
	// Name identifies the source in messages and logs.
	Name() string
	// Start acquires resources. It is called once; an error is fatal to the
	// source. Adapters that wait internally must wait with stop.Sleep.
	Start(stop *Stop) error
	// Poll returns records produced since the previous call without blocking.
	// Returning ErrSourceDone ends the source gracefully.
	Poll() ([]string, error)
	// Stop releases resources. It is called exactly once.
	Stop() error
}

// ErrSourceDone reports that a source has permanently run out of records.
var ErrSourceDone = errors.New("source exhausted")

// ErrShutdownTimeout is returned by Bridge.Shutdown when workers did not exit
// within the bound.
var ErrShutdownTimeout = errors.New("ingestion shutdown timed out")

// State is a worker lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Kind classifies a handoff message.
type Kind int

const (
	// KindRecords carries parsed entries in the order the source produced them.
	KindRecords Kind = iota
	// KindPollError reports a transient poll failure.
	KindPollError
	// KindStartError reports a fatal start failure or a recovered panic.
	KindStartError
	// KindDone reports that the source ran out of records.
	KindDone
	// KindRecovered reports a clean poll after one or more poll failures.
	KindRecovered
)

// Message is one unit on the handoff channel.
type Message struct {
	Source   string
	Kind     Kind
	Entries  []entry.Entry
	Declined int
	Err      error
}

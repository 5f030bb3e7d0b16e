package datastore

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNotConnected indicates the pool is closed or was never opened.
var ErrNotConnected = errors.New("datastore: not connected")

// ReadyState is the numeric connection state reported in probe details.
type ReadyState int32

const (
	StateDisconnected  ReadyState = 0
	StateConnected     ReadyState = 1
	StateConnecting    ReadyState = 2
	StateDisconnecting ReadyState = 3
)

func (s ReadyState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateConnecting:
		return "connecting"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// ContextPinger is satisfied by *sql.DB.
type ContextPinger interface {
	PingContext(ctx context.Context) error
}

// Pinger tracks the ready state of a connection and pings it on demand.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ping updates the ready state: success marks it connected, failure
//   marks it disconnected. A closed Pinger always fails with ErrNotConnected.
type Pinger struct {
	name  string
	db    atomic.Pointer[ContextPinger]
	state atomic.Int32
}

// NewPinger creates a Pinger in the connecting state. Call Attach once the
// pool is open.
func NewPinger(name string) *Pinger {
	p := &Pinger{name: name}
	p.state.Store(int32(StateConnecting))
	return p
}

// Attach binds the pool and marks the Pinger connected.
func (p *Pinger) Attach(db ContextPinger) {
	p.db.Store(&db)
	p.state.Store(int32(StateConnected))
}

// Detach marks the Pinger disconnected and drops the pool.
func (p *Pinger) Detach() {
	p.db.Store(nil)
	p.state.Store(int32(StateDisconnected))
}

// Name returns the logical database name.
func (p *Pinger) Name() string {
	return p.name
}

// ReadyState returns the current state as an int.
func (p *Pinger) ReadyState() int {
	return int(p.state.Load())
}

// State returns the current state.
func (p *Pinger) State() ReadyState {
	return ReadyState(p.state.Load())
}

// Ping issues a lightweight round-trip to the database.
func (p *Pinger) Ping(ctx context.Context) error {
	db := p.db.Load()
	if db == nil {
		return ErrNotConnected
	}
	if err := (*db).PingContext(ctx); err != nil {
		p.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected))
		return err
	}
	p.state.Store(int32(StateConnected))
	return nil
}

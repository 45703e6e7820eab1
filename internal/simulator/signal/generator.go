// Package signal contains the signal generators that turn bar data into
// directional trading signals. Generators are closed Go implementations of
// the Generator interface; the engine calls each one per bar and isolates
// individual failures.
package signal

import (
	"time"

	"github.com/quantfox/btcsim/internal/types"
)

// Generator produces one directional signal per bar.
//
// history is the trailing bar window up to and including the current bar,
// oldest first. Implementations must not mutate it.
type Generator interface {
	// Name identifies the generator in signal sources and logs.
	Name() string

	// GenerateSignal computes the signal for the current bar. A generator
	// that cannot form an opinion returns a hold signal, not an error;
	// errors are reserved for malformed inputs.
	GenerateSignal(current types.Bar, history []types.Bar, ts time.Time) (types.Signal, error)
}

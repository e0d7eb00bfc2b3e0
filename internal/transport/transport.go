// Package transport publishes analysis snapshots to render collaborators.
// Implementations must tolerate being fed once per frame and must never
// block the frame loop; slow consumers get dropped data, not backpressure.
package transport

import (
	"audiovis/internal/analyzer"
	applog "audiovis/internal/log"
)

// Transport delivers one snapshot per analysis tick. Send is called from the
// single frame-loop goroutine; snapshots are self-contained, so an
// implementation may hand them to other goroutines or retain them.
type Transport interface {
	Send(snap analyzer.Snapshot) error
	Close() error
}

// Logging is a debug transport that reports levels to the logger instead of
// shipping data anywhere.
type Logging struct{}

// NewLogging creates a Logging transport.
func NewLogging() *Logging {
	applog.Infof("Transport: using logging transport")
	return &Logging{}
}

// Send logs the snapshot's level summary at debug level.
func (l *Logging) Send(snap analyzer.Snapshot) error {
	applog.Debugf("Transport: %d bands, rms=%.3f peak=%.3f", len(snap.Magnitudes), snap.RMS, snap.Peak)
	return nil
}

// Close is a no-op.
func (l *Logging) Close() error { return nil }

var _ Transport = (*Logging)(nil)

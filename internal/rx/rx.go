// Package rx decodes RC receiver frames and turns stick positions into
// normalized thrust demand.
package rx

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NumChannels is the number of RC channels kept per frame.
const NumChannels = 16

// Pulse-width range and centre of an RC channel, in microseconds.
const (
	MinRxValue     = 988
	MaxRxValue     = 2012
	NeutralRxValue = 1500
)

// FailsafeTimeout is how long the link may stay silent before it is stale.
const FailsafeTimeout = 500 * time.Millisecond

// Channels holds one frame of channel values in microseconds.
type Channels [NumChannels]uint16

// Parser consumes a byte stream one byte at a time. Feed returns true when
// a valid frame completed on this byte; Channels then holds its values.
type Parser interface {
	Feed(b byte) bool
	Channels() Channels
}

// Receiver runs a Parser over a byte stream and keeps the latest frame for
// the control loop.
type Receiver struct {
	parser Parser
	log    zerolog.Logger

	mu       sync.Mutex
	channels Channels
	lastRx   time.Time
	frames   uint64
}

func NewReceiver(p Parser, log zerolog.Logger) *Receiver {
	return &Receiver{parser: p, log: log.With().Str("component", "rx").Logger()}
}

// Run reads src until it fails or ctx is cancelled. A src that is also an
// io.Closer is closed when Run returns, and on cancellation so a blocked read
// wakes up.
func (r *Receiver) Run(ctx context.Context, src io.Reader) error {
	if c, ok := src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer func() {
			if stop() {
				_ = c.Close()
			}
		}()
	}

	br := bufio.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := br.ReadByte()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if r.parser.Feed(b) {
			r.update(r.parser.Channels(), time.Now())
		}
	}
}

func (r *Receiver) update(ch Channels, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = ch
	r.lastRx = at
	r.frames++
	if r.frames == 1 {
		r.log.Info().Msg("first receiver frame")
	}
}

// Channels returns the latest frame and when it arrived.
func (r *Receiver) Channels() (Channels, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels, r.lastRx
}

// Stale reports whether no frame arrived within FailsafeTimeout of now.
func (r *Receiver) Stale(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRx.IsZero() || now.Sub(r.lastRx) > FailsafeTimeout
}

// Frames counts the valid frames received.
func (r *Receiver) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

package encoder

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

var ErrSourceClosed = errors.New("encoder source closed")

// Source yields raw counter frames collected since the previous Read.
type Source interface {
	Read(ctx context.Context) ([]Frame, error)
	Close() error
}

// counterMask models the 16 bit hardware counters.
const counterMask = 0xFFFF

// SimulatedSource traces a slow helix so the rest of the pipeline can run
// without the acquisition board attached.
type SimulatedSource struct {
	rate    float64
	maxRead int
	now     func() time.Time

	mu     sync.Mutex
	last   time.Time
	t      float64
	closed bool
}

// NewSimulatedSource produces frames at rate Hz. A single Read never returns
// more than one scan buffer (10000 frames).
func NewSimulatedSource(rate float64) *SimulatedSource {
	return &SimulatedSource{
		rate:    rate,
		maxRead: 10000,
		now:     time.Now,
	}
}

func (s *SimulatedSource) Read(ctx context.Context) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}

	now := s.now()
	if s.last.IsZero() {
		s.last = now
		return nil, nil
	}

	n := int(now.Sub(s.last).Seconds() * s.rate)
	if n <= 0 {
		return nil, nil
	}
	if n > s.maxRead {
		n = s.maxRead
	}
	s.last = s.last.Add(time.Duration(float64(n) / s.rate * float64(time.Second)))

	frames := make([]Frame, n)
	for i := range frames {
		s.t += 1 / s.rate
		frames[i] = helix(s.t)
	}

	return frames, nil
}

func (s *SimulatedSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// helix returns counts for a 40mm circle in XY climbing 0.5mm per turn.
func helix(t float64) Frame {
	const (
		radius = 40.0
		period = 20.0
		pitch  = 0.5
	)
	angle := 2 * math.Pi * t / period
	x := radius * math.Cos(angle)
	y := radius * math.Sin(angle)
	z := pitch * t / period

	zc := counts(z, 40961.0/10.0)
	var f Frame
	f[ChanX] = counts(x, 25726.0/100.0)
	f[ChanY] = counts(y, 25725.0/100.0)
	f[ChanZ1] = zc
	f[ChanZ2] = zc
	return f
}

func counts(mm, perMM float64) int64 {
	return int64(math.Round(mm*perMM)) & counterMask
}

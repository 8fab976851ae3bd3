package encoder

import (
	"context"
	"errors"
	"sync"
	"time"

	"mccdaq/app/metrics"
	"mccdaq/logger"
	"mccdaq/models"
)

// Sink receives every converted batch in acquisition order.
type Sink interface {
	WriteSamples(samples []models.Sample) error
}

type SinkFunc func(samples []models.Sample) error

func (f SinkFunc) WriteSamples(samples []models.Sample) error {
	return f(samples)
}

type Reader struct {
	source   Source
	conv     *Converter
	interval time.Duration
	period   float64
	sinks    []Sink
	logger   *logger.Logger
	now      func() time.Time

	mu       sync.RWMutex
	up       bool
	cursor   float64
	position models.Position
	read     int
}

// NewReader polls source every interval. rate is the hardware sample rate in
// Hz and sets the timestamp spacing.
func NewReader(source Source, rate float64, interval time.Duration, logger *logger.Logger, sinks ...Sink) *Reader {
	return &Reader{
		source:   source,
		conv:     NewConverter(),
		interval: interval,
		period:   1e6 / rate,
		sinks:    sinks,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until ctx ends or the source fails.
func (r *Reader) Run(ctx context.Context) error {
	r.logger.LogInfo("Starting encoder reader", "interval", r.interval.String())
	r.setUp(true)
	defer r.setUp(false)
	defer func() { _ = r.source.Close() }()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.LogInfo("Stopping encoder reader")
			return nil
		case <-ticker.C:
			if err := r.Poll(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				r.logger.LogError(err, "Error reading encoder")
				return err
			}
		}
	}
}

// Poll reads one batch and hands it to every sink. Sink failures are logged
// and do not stop acquisition.
func (r *Reader) Poll(ctx context.Context) error {
	frames, err := r.source.Read(ctx)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}

	r.mu.Lock()
	start := r.cursor
	if start == 0 {
		start = float64(r.now().UnixMicro()) + 1
	}
	end := start + float64(len(frames)-1)*r.period
	samples := r.conv.Convert(frames, start, end)
	r.cursor = end + r.period
	r.position = r.conv.Position()
	r.read += len(samples)
	metrics.SetWraps(r.conv.Wraps())
	r.mu.Unlock()

	metrics.AddSamplesRead(len(samples))

	for _, s := range r.sinks {
		if err := s.WriteSamples(samples); err != nil {
			r.logger.LogError(err, "Error handing samples to sink", "samples", len(samples))
		}
	}

	return nil
}

// Position is the most recent unwrapped position.
func (r *Reader) Position() models.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.position
}

func (r *Reader) Up() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.up
}

// SamplesRead is the total number of samples converted so far.
func (r *Reader) SamplesRead() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read
}

func (r *Reader) setUp(up bool) {
	r.mu.Lock()
	r.up = up
	r.mu.Unlock()
}

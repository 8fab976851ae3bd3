package encoder

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"mccdaq/logger"
	"mccdaq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	batches [][]Frame
	err     error
	closed  bool
}

func (s *scriptedSource) Read(context.Context) ([]Frame, error) {
	if len(s.batches) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func TestPollTimestampsAreContinuous(t *testing.T) {
	src := &scriptedSource{batches: [][]Frame{make([]Frame, 3), make([]Frame, 2)}}
	var got []models.Sample
	r := NewReader(src, 1000, time.Second, logger.NewWithWriter(&bytes.Buffer{}), SinkFunc(func(s []models.Sample) error {
		got = append(got, s...)
		return nil
	}))
	r.now = func() time.Time { return time.UnixMicro(5_000_000) }

	require.NoError(t, r.Poll(context.Background()))
	require.NoError(t, r.Poll(context.Background()))

	require.Len(t, got, 5)
	assert.Equal(t, 5_000_001.0, got[0].Time)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, 1000.0, got[i].Time-got[i-1].Time)
	}
	assert.Equal(t, 5, r.SamplesRead())
}

func TestPollTracksPosition(t *testing.T) {
	src := &scriptedSource{batches: [][]Frame{{frame(25726, 0, 0, 0)}}}
	r := NewReader(src, 1000, time.Second, logger.NewWithWriter(&bytes.Buffer{}))

	require.NoError(t, r.Poll(context.Background()))
	assert.InDelta(t, 100.0, r.Position().X, 1e-9)
}

func TestPollSinkErrorDoesNotStop(t *testing.T) {
	src := &scriptedSource{batches: [][]Frame{make([]Frame, 1)}}
	calls := 0
	failing := SinkFunc(func([]models.Sample) error { return errors.New("disk full") })
	counting := SinkFunc(func([]models.Sample) error { calls++; return nil })
	r := NewReader(src, 1000, time.Second, logger.NewWithWriter(&bytes.Buffer{}), failing, counting)

	require.NoError(t, r.Poll(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestRunStopsOnSourceError(t *testing.T) {
	boom := errors.New("device disconnected")
	src := &scriptedSource{err: boom}
	r := NewReader(src, 1000, time.Millisecond, logger.NewWithWriter(&bytes.Buffer{}))

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, src.closed)
	assert.False(t, r.Up())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &scriptedSource{}
	r := NewReader(src, 1000, time.Millisecond, logger.NewWithWriter(&bytes.Buffer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, r.Run(ctx))
	assert.True(t, src.closed)
}

func TestSimulatedSourceRespectsRate(t *testing.T) {
	now := time.Unix(100, 0)
	s := NewSimulatedSource(1000)
	s.now = func() time.Time { return now }

	frames, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, frames)

	now = now.Add(250 * time.Millisecond)
	frames, err = s.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, frames, 250)

	now = now.Add(time.Minute)
	frames, err = s.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, frames, 10000)

	require.NoError(t, s.Close())
	_, err = s.Read(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestSimulatedHelixStaysOnCircle(t *testing.T) {
	s := NewSimulatedSource(100)
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }
	_, _ = s.Read(context.Background())
	now = now.Add(30 * time.Second)

	frames, err := s.Read(context.Background())
	require.NoError(t, err)

	c := NewConverter()
	samples := c.Convert(frames, 0, 1)
	for _, smp := range samples {
		r2 := smp.X*smp.X + smp.Y*smp.Y
		assert.InDelta(t, 1600.0, r2, 60.0)
	}
}

package encoder

import (
	"math"

	"mccdaq/models"
)

// Channels is the number of counters read per frame.
const Channels = 5

// Counter wiring on the quadrature board.
const (
	ChanZ1 = iota
	ChanY
	ChanZ2
	ChanX
	ChanExtruder
)

// Frame holds one raw reading of every counter.
type Frame [Channels]int64

// zDisagreement is how far apart the two Z counters may drift before the
// reading is treated as a glitch and replaced by zero.
const zDisagreement = 60000

// axis turns raw counts into an unwrapped position. The counters are 16 bit,
// so every axis rolls over after span mm.
type axis struct {
	scale float64
	span  float64
	jump  float64

	prev  float64
	pos   float64
	wraps int
}

func (a *axis) next(raw float64) float64 {
	cur := raw * a.scale
	d := cur - a.prev

	switch {
	case d < -a.jump:
		a.pos += a.span - a.prev + cur
		a.wraps++
	case d > a.jump:
		a.pos -= a.span - cur + a.prev
		a.wraps++
	default:
		a.pos += d
	}
	a.prev = cur

	return a.pos
}

// Converter keeps per-axis rollover state across batches.
type Converter struct {
	x, y, z axis
}

func NewConverter() *Converter {
	return &Converter{
		x: axis{scale: 100.0 / 25726.0, span: 254.8, jump: 200},
		y: axis{scale: 100.0 / 25725.0, span: 254.8, jump: 200},
		z: axis{scale: 10.0 / 40961.0, span: 16.0, jump: 7},
	}
}

// Convert maps frames onto samples spaced evenly between start and end
// (microseconds, both inclusive).
func (c *Converter) Convert(frames []Frame, start, end float64) []models.Sample {
	if len(frames) == 0 {
		return nil
	}

	samples := make([]models.Sample, len(frames))
	step := 0.0
	if len(frames) > 1 {
		step = (end - start) / float64(len(frames)-1)
	}

	for i, f := range frames {
		samples[i] = models.Sample{
			Time: start + float64(i)*step,
			X:    c.x.next(float64(f[ChanX])),
			Y:    c.y.next(float64(f[ChanY])),
			Z:    c.z.next(zCounts(f)),
		}
	}

	return samples
}

// Position is the last unwrapped position.
func (c *Converter) Position() models.Position {
	return models.Position{X: c.x.pos, Y: c.y.pos, Z: c.z.pos}
}

// Wraps reports how many rollovers each axis has seen.
func (c *Converter) Wraps() (x, y, z int) {
	return c.x.wraps, c.y.wraps, c.z.wraps
}

func zCounts(f Frame) float64 {
	z1, z2 := f[ChanZ1], f[ChanZ2]
	if math.Abs(float64(z1-z2)) > zDisagreement {
		return 0
	}
	return float64(z1+z2) / 2
}

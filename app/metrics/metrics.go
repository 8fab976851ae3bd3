package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mccdaq_samples_read_total",
		Help: "Encoder samples converted by the reader",
	})

	samplesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mccdaq_samples_recorded_total",
		Help: "Samples written to recording files",
	})

	recording = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mccdaq_recording",
		Help: "1 while a recording is open",
	})

	encoderWraps = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mccdaq_encoder_wraps",
		Help: "Counter rollovers seen per axis since start",
	}, []string{"axis"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mccdaq_uploads_total",
		Help: "Uploads to object storage by kind and result",
	}, []string{"kind", "result"})
)

func AddSamplesRead(n int) {
	samplesRead.Add(float64(n))
}

func AddSamplesRecorded(n int) {
	samplesRecorded.Add(float64(n))
}

func SetRecording(on bool) {
	if on {
		recording.Set(1)
		return
	}
	recording.Set(0)
}

func SetWraps(x, y, z int) {
	encoderWraps.WithLabelValues("x").Set(float64(x))
	encoderWraps.WithLabelValues("y").Set(float64(y))
	encoderWraps.WithLabelValues("z").Set(float64(z))
}

// IncUpload records one upload attempt. kind is "recording" or "log".
func IncUpload(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	uploadsTotal.WithLabelValues(kind, result).Inc()
}

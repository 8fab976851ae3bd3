package models

import "time"

// RecordingStatus is the payload of status.json, start.json and stop.json.
type RecordingStatus struct {
	Recording bool   `json:"recording"`
	Filename  string `json:"filename"`
}

type StartRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DeviceStatus struct {
	EncoderUp bool    `json:"isEncoderUp"`
	Recording bool    `json:"isRecording"`
	Uploading bool    `json:"isUploading"`
	DiskUsage float32 `json:"diskUsage"`
	Filename  string  `json:"filename"`
}

type FileDetails struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Uploading bool   `json:"isUploading"`
	Recording bool   `json:"isRecording"`
}

// Sample is one encoder reading. Time is in microseconds, positions in mm.
type Sample struct {
	Time float64
	X    float64
	Y    float64
	Z    float64
}

// Position is a point in machine space, in mm.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Session describes one recording; it is stored next to the CSV it names.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Filename  string     `json:"filename"`
	StartedAt time.Time  `json:"startedAt"`
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
	Samples   int        `json:"samples"`
	Offset    Position   `json:"offset"`
}

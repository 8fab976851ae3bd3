package recorder

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"mccdaq/app/metrics"
	"mccdaq/logger"
	"mccdaq/models"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

const Extension = ".csv"

var csvHeader = []string{"time_us", "x_mm", "y_mm", "z_mm"}

// PositionFunc reports where the machine currently is.
type PositionFunc func() models.Position

type Recorder struct {
	folder   string
	position PositionFunc
	logger   *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	file     *os.File
	writer   *csv.Writer
	session  *models.Session
	filename string
}

func New(folder string, position PositionFunc, logger *logger.Logger) (*Recorder, error) {
	logger.LogInfo("Checking if data folder exists.....", "folder", folder)
	_, err := os.Stat(folder)

	if err != nil {
		logger.LogWarning(err, "data folder doesn't exist, creating it .......")
		if err = os.MkdirAll(folder, 0755); err != nil {
			logger.LogError(err, "Failed to create data folder", "folder", folder)
			return nil, err
		}
		logger.LogInfo("data folder created successfully")
	}

	return &Recorder{
		folder:   folder,
		position: position,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start opens a new recording named after title. The current position
// becomes the origin of every sample written until Stop. A recording already
// in progress is closed first.
func (r *Recorder) Start(title, content string) (models.RecordingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		r.logger.LogInfo("Recording already in progress, closing it", "filename", r.filename)
		if err := r.closeLocked(); err != nil {
			r.logger.LogError(err, "Error closing previous recording", "filename", r.filename)
		}
	}

	started := r.now()
	name, err := r.uniqueName(title, started)
	if err != nil {
		return r.statusLocked(), err
	}

	f, err := os.OpenFile(filepath.Join(r.folder, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		r.logger.LogError(err, "Error creating recording file", "filename", name)
		return r.statusLocked(), err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return r.statusLocked(), err
	}

	pos := r.position()
	session := &models.Session{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Filename:  name,
		StartedAt: started.UTC(),
		Offset:    models.Position{X: -pos.X, Y: -pos.Y, Z: -pos.Z},
	}

	if err := r.writeSession(session); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		r.logger.LogError(err, "Error writing session metadata", "filename", name)
		return r.statusLocked(), err
	}

	r.file = f
	r.writer = w
	r.session = session
	r.filename = name
	metrics.SetRecording(true)

	r.logger.LogInfo("Recording started", "filename", name, "session", session.ID)

	return r.statusLocked(), nil
}

// Stop closes the active recording. Stopping when idle is not an error; the
// last filename is kept either way.
func (r *Recorder) Stop() (models.RecordingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return r.statusLocked(), nil
	}

	r.logger.LogInfo("Stopping recording", "filename", r.filename)
	err := r.closeLocked()

	return r.statusLocked(), err
}

func (r *Recorder) Status() models.RecordingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// RecordingStats reports whether a recording is open and its file name.
func (r *Recorder) RecordingStats() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil, r.filename
}

// WriteSamples appends offset samples to the open recording and drops them
// otherwise.
func (r *Recorder) WriteSamples(samples []models.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}

	off := r.session.Offset
	row := make([]string, len(csvHeader))
	for _, s := range samples {
		row[0] = strconv.FormatFloat(s.Time, 'f', 0, 64)
		row[1] = formatMM(s.X + off.X)
		row[2] = formatMM(s.Y + off.Y)
		row[3] = formatMM(s.Z + off.Z)
		if err := r.writer.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.filename, err)
		}
	}
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", r.filename, err)
	}

	r.session.Samples += len(samples)
	metrics.AddSamplesRecorded(len(samples))

	return nil
}

func (r *Recorder) statusLocked() models.RecordingStatus {
	return models.RecordingStatus{
		Recording: r.session != nil,
		Filename:  r.filename,
	}
}

func (r *Recorder) closeLocked() error {
	var errs []error

	r.writer.Flush()
	errs = append(errs, r.writer.Error())
	errs = append(errs, r.file.Close())

	stopped := r.now().UTC()
	r.session.StoppedAt = &stopped
	errs = append(errs, r.writeSession(r.session))

	r.logger.LogInfo("Recording closed", "filename", r.filename, "samples", r.session.Samples)

	r.file = nil
	r.writer = nil
	r.session = nil
	metrics.SetRecording(false)

	return errors.Join(errs...)
}

// writeSession stores metadata atomically so a crash never leaves half a
// document next to the data.
func (r *Recorder) writeSession(s *models.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(filepath.Join(r.folder, MetadataName(s.Filename)))
	if err != nil {
		return fmt.Errorf("create pending metadata file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return pending.CloseAtomicallyReplace()
}

func (r *Recorder) uniqueName(title string, at time.Time) (string, error) {
	base := fmt.Sprintf("%s_%s", Slug(title), at.Format("20060102-150405"))

	name := base + Extension
	for i := 2; i < 100; i++ {
		_, err := os.Stat(filepath.Join(r.folder, name))
		if errors.Is(err, os.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		name = fmt.Sprintf("%s-%d%s", base, i, Extension)
	}

	return "", fmt.Errorf("no free file name for %q", base)
}

// MetadataName is the session document stored next to a recording.
func MetadataName(recording string) string {
	return strings.TrimSuffix(recording, Extension) + ".json"
}

// Slug reduces a free-form title to a safe file name stem.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	if s == "" {
		return "recording"
	}
	return s
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"mccdaq/app/encoder"
	"mccdaq/app/helper"
	"mccdaq/app/recorder"
	"mccdaq/app/upload"
	"mccdaq/apperror"
	"mccdaq/config"
	"mccdaq/logger"
	"mccdaq/models"

	"golang.org/x/sys/unix"
)

// Uploader is the object storage side of the app.
type Uploader interface {
	UploadRecording(filename string) error
	UploadRecordings() error
	UploadStats() (bool, string)
}

type App struct {
	reader     *encoder.Reader
	recorder   *recorder.Recorder
	uploader   Uploader
	logger     *logger.Logger
	dataFolder string

	cmdMu     sync.Mutex
	subMu     sync.Mutex
	listeners []func(models.RecordingStatus)
}

func NewApp(conf config.Config, logger *logger.Logger) (*App, error) {
	logger.LogInfo("Initializing encoder source", "environment", conf.Environment)
	source, err := newSource(conf)

	if err != nil {
		logger.LogError(err, "Error starting encoder source, recording disabled", "environment", conf.Environment, "command", conf.EncoderCommand)
		source = nil
	}

	a, err := newApp(conf, source, logger)
	if err != nil {
		return nil, err
	}

	if !conf.S3Config.Enabled() {
		logger.LogInfo("S3 not configured, uploads disabled")
		return a, nil
	}

	logger.LogInfo("Initializing uploader")
	up, err := upload.NewUploader(conf, a.recorder.RecordingStats, logger)

	if err != nil {
		logger.LogError(err, "Error initializing uploader")
		return a, nil
	}

	up.UploadLogs(logger.Filename())
	a.uploader = up

	return a, nil
}

// newApp leaves the encoder down when source is nil.
func newApp(conf config.Config, source encoder.Source, logger *logger.Logger) (*App, error) {
	a := &App{
		logger:     logger,
		dataFolder: conf.DataFolder,
	}

	position := func() models.Position {
		if a.reader == nil {
			return models.Position{}
		}
		return a.reader.Position()
	}

	rec, err := recorder.New(conf.DataFolder, position, logger)
	if err != nil {
		return nil, err
	}

	a.recorder = rec
	if source != nil {
		a.reader = encoder.NewReader(source, conf.SampleRate, conf.SampleInterval, logger, rec)
	}

	return a, nil
}

func newSource(conf config.Config) (encoder.Source, error) {
	switch conf.Environment {
	case "prod":
		return encoder.StartScanner(conf.EncoderCommand)
	case "dev", "":
		return encoder.NewSimulatedSource(conf.SampleRate), nil
	default:
		return nil, errors.New("unknown environment")
	}
}

// Run acquires encoder data until ctx ends. A failing encoder is logged and
// leaves the app serving with recording unavailable.
func (a *App) Run(ctx context.Context) error {
	if a.reader == nil {
		a.logger.LogWarning(errors.New("no encoder source"), "Recording unavailable")
		return nil
	}
	if err := a.reader.Run(ctx); err != nil {
		a.logger.LogError(err, "Encoder stopped, recording unavailable")
		if _, stopErr := a.StopRecording(); stopErr != nil {
			a.logger.LogError(stopErr, "Error closing recording after encoder failure")
		}
	}
	return nil
}

// Subscribe registers fn for every recording status change.
func (a *App) Subscribe(fn func(models.RecordingStatus)) {
	a.subMu.Lock()
	a.listeners = append(a.listeners, fn)
	a.subMu.Unlock()
}

func (a *App) publish(status models.RecordingStatus) {
	a.subMu.Lock()
	listeners := append([]func(models.RecordingStatus){}, a.listeners...)
	a.subMu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}

func (a *App) Status() models.RecordingStatus {
	return a.recorder.Status()
}

func (a *App) StartRecording(title, content string) (models.RecordingStatus, error) {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	if !a.encoderUp() {
		a.logger.LogError(errors.New("encoder not running"), "Error starting recording", "title", title)
		return a.recorder.Status(), apperror.ServiceUnavailable.SetMessage("Encoder is not running")
	}

	status, err := a.recorder.Start(title, content)
	// A failed start may still have closed the previous session.
	a.publish(status)

	if err != nil {
		a.logger.LogError(err, "Error starting recording", "title", title)
		return status, apperror.ServerError.Wrap(err)
	}

	return status, nil
}

func (a *App) StopRecording() (models.RecordingStatus, error) {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	status, err := a.recorder.Stop()
	a.publish(status)

	if err != nil {
		a.logger.LogError(err, "Error stopping recording", "filename", status.Filename)
		return status, apperror.ServerError.Wrap(err)
	}

	return status, nil
}

func (a *App) UploadRecording(filename string) error {
	if a.uploader == nil {
		return apperror.ServiceUnavailable.SetMessage("Object storage is not configured")
	}
	return a.uploader.UploadRecording(filename)
}

func (a *App) UploadRecordings() error {
	if a.uploader == nil {
		return apperror.ServiceUnavailable.SetMessage("Object storage is not configured")
	}
	return a.uploader.UploadRecordings()
}

func (a *App) FetchRecordings() ([]models.FileDetails, error) {
	a.logger.LogInfo("Fetching available recordings", "folder_name", a.dataFolder)

	files, err := upload.Recordings(a.dataFolder)

	if err != nil {
		a.logger.LogError(err, "Error reading data folder", "folder_name", a.dataFolder)
		return nil, apperror.ServerError.Wrap(err)
	}

	recording, active := a.recorder.RecordingStats()
	uploading, uploadName := a.uploadStats()

	fileDetails := make([]models.FileDetails, 0, len(files))

	for _, file := range files {
		fileDetail := models.FileDetails{
			Filename: file,
		}

		if info, err := os.Stat(filepath.Join(a.dataFolder, file)); err == nil {
			fileDetail.Size = info.Size()
		}

		if recording && file == active {
			fileDetail.Recording = true
		} else if uploading && file == uploadName {
			fileDetail.Uploading = true
		}

		fileDetails = append(fileDetails, fileDetail)
	}

	return fileDetails, nil
}

func (a *App) AppStatus() *models.DeviceStatus {
	var stat unix.Statfs_t
	recording, filename := a.recorder.RecordingStats()
	uploading, _ := a.uploadStats()

	status := &models.DeviceStatus{
		EncoderUp: a.encoderUp(),
		Recording: recording,
		Uploading: uploading,
		Filename:  filename,
	}

	if err := unix.Statfs(a.dataFolder, &stat); err != nil {
		a.logger.LogError(err, "Error getting disk usage")
		return status
	}

	status.DiskUsage = helper.UsedFraction(stat.Bavail*uint64(stat.Bsize), stat.Blocks*uint64(stat.Bsize))

	return status
}

func (a *App) uploadStats() (bool, string) {
	if a.uploader == nil {
		return false, ""
	}
	return a.uploader.UploadStats()
}

func (a *App) encoderUp() bool {
	return a.reader != nil && a.reader.Up()
}

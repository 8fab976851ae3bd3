package controller

import (
	"encoding/json"
	"mime"
	"net/http"

	"mccdaq/apperror"
	"mccdaq/logger"
	"mccdaq/models"
	"mccdaq/web/helper"
)

// Service is what the HTTP layer needs from the app.
type Service interface {
	Status() models.RecordingStatus
	StartRecording(title, content string) (models.RecordingStatus, error)
	StopRecording() (models.RecordingStatus, error)
	UploadRecording(filename string) error
	UploadRecordings() error
	FetchRecordings() ([]models.FileDetails, error)
	AppStatus() *models.DeviceStatus
}

type Controller struct {
	logger *logger.Logger
	app    Service
}

func NewController(app Service, logger *logger.Logger) *Controller {
	return &Controller{
		app:    app,
		logger: logger,
	}
}

func (c *Controller) Status(w http.ResponseWriter, _ *http.Request) {
	helper.ReturnSuccess(w, c.app.Status())
}

// StartRecording accepts the title and content either form encoded, as the
// browser page sends them, or as a JSON object.
func (c *Controller) StartRecording(w http.ResponseWriter, r *http.Request) {
	p, err := decodeStart(r)

	if err != nil {
		c.logger.LogError(err, "Error getting recording details from request")
		helper.ReturnFailure(w, apperror.InvalidRequest)
		return
	}

	status, err := c.app.StartRecording(p.Title, p.Content)

	if err != nil {
		c.logger.LogError(err, "Error starting recording", "title", p.Title)
		helper.ReturnFailure(w, err)
		return
	}

	c.logger.LogInfo("recording started", "filename", status.Filename)
	helper.ReturnSuccess(w, status)
}

func (c *Controller) StopRecording(w http.ResponseWriter, _ *http.Request) {
	status, err := c.app.StopRecording()

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	c.logger.LogInfo("stopping recording", "filename", status.Filename)
	helper.ReturnSuccess(w, status)
}

func (c *Controller) UploadFile(w http.ResponseWriter, r *http.Request) {
	c.logger.LogInfo("upload file request received")

	file := struct {
		FileName string `json:"fileName"`
	}{}

	if err := json.NewDecoder(r.Body).Decode(&file); err != nil || file.FileName == "" {
		helper.ReturnFailure(w, apperror.InvalidRequest)
		return
	}

	if err := c.app.UploadRecording(file.FileName); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, nil)
}

func (c *Controller) ListFiles(w http.ResponseWriter, _ *http.Request) {
	c.logger.LogInfo("list files request received")

	files, err := c.app.FetchRecordings()

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, files)
}

func (c *Controller) UploadAllFiles(w http.ResponseWriter, _ *http.Request) {
	c.logger.LogInfo("upload all files request received")
	err := c.app.UploadRecordings()

	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, nil)
}

func (c *Controller) DeviceStatus(w http.ResponseWriter, _ *http.Request) {
	c.logger.LogInfo("fetching device status")
	helper.ReturnSuccess(w, c.app.AppStatus())
}

func decodeStart(r *http.Request) (models.StartRequest, error) {
	var p models.StartRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&p)
		return p, err
	}

	if err := r.ParseForm(); err != nil {
		return p, err
	}
	p.Title = r.PostForm.Get("title")
	p.Content = r.PostForm.Get("content")

	return p, nil
}

package upload

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mccdaq/app/metrics"
	"mccdaq/app/recorder"
	"mccdaq/apperror"
	"mccdaq/config"
	"mccdaq/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ObjectUploader is the part of s3manager.Uploader used here.
type ObjectUploader interface {
	Upload(input *s3manager.UploadInput, options ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// ActiveFunc reports the recording currently being written, if any.
type ActiveFunc func() (bool, string)

type Uploader struct {
	bucket     string
	dataFolder string
	logFolder  string
	hostname   string
	active     ActiveFunc
	logger     *logger.Logger
	uploader   ObjectUploader

	mu          sync.Mutex
	isUploading bool
	uploadName  string
}

func NewUploader(conf config.Config, active ActiveFunc, logger *logger.Logger) (*Uploader, error) {
	s3config := conf.S3Config

	awsConfig := &aws.Config{
		Region:           aws.String(s3config.Region),
		Credentials:      credentials.NewStaticCredentials(s3config.AccessKey, s3config.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}

	if s3config.EndpointUrl != "" {
		awsConfig.Endpoint = aws.String(s3config.EndpointUrl)
	}

	sess, err := session.NewSession(awsConfig)

	if err != nil {
		return nil, err
	}

	return newUploader(conf, active, logger, s3manager.NewUploader(sess))
}

func newUploader(conf config.Config, active ActiveFunc, logger *logger.Logger, up ObjectUploader) (*Uploader, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("device hostname: %w", err)
	}

	return &Uploader{
		bucket:     conf.S3Config.Bucket,
		dataFolder: conf.DataFolder,
		logFolder:  conf.LogFolder,
		hostname:   hostname,
		active:     active,
		logger:     logger,
		uploader:   up,
	}, nil
}

func (u *Uploader) UploadStats() (bool, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.isUploading, u.uploadName
}

// UploadLogs ships every file in the log folder except current, removing
// each one once it is stored.
func (u *Uploader) UploadLogs(current string) {
	u.logger.LogInfo("Uploading logs to S3", "bucket", u.bucket, "folder", u.logFolder)

	entries, err := os.ReadDir(u.logFolder)

	if err != nil {
		u.logger.LogError(err, "Error reading log folder", "folder", u.logFolder)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == filepath.Base(current) {
			continue
		}

		localFilename := filepath.Join(u.logFolder, entry.Name())
		err := u.put(localFilename, fmt.Sprintf("%s/logs/%s", u.hostname, entry.Name()), "text/plain")
		metrics.IncUpload("log", err)

		if err != nil {
			u.logger.LogError(err, "Error uploading log file", "filename", entry.Name())
			continue
		}

		if err := os.Remove(localFilename); err != nil {
			u.logger.LogError(err, "Error removing log file", "filename", entry.Name())
		}
	}
}

// UploadRecording stores one finished recording and its metadata, then
// deletes both locally.
func (u *Uploader) UploadRecording(filename string) error {
	filename = filepath.Base(filename)
	if !strings.HasSuffix(filename, recorder.Extension) {
		filename += recorder.Extension
	}

	if err := u.begin(filename); err != nil {
		return err
	}
	defer u.end()

	_, err := os.Stat(filepath.Join(u.dataFolder, filename))

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			u.logger.LogError(err, "Provided file does not exist in specified folder", "folder_name", u.dataFolder, "file_name", filename)
			return apperror.NotFound
		}
		u.logger.LogError(err, "Error reading file", "folder_name", u.dataFolder, "file_name", filename)
		return apperror.ServerError.Wrap(err)
	}

	if err := u.uploadOne(filename); err != nil {
		return apperror.ServerError.Wrap(err)
	}

	return nil
}

// UploadRecordings stores every finished recording. Individual failures are
// logged and skipped.
func (u *Uploader) UploadRecordings() error {
	if err := u.begin(""); err != nil {
		return err
	}
	defer u.end()

	u.logger.LogInfo("Uploading all recordings to S3", "folder_name", u.dataFolder)

	files, err := Recordings(u.dataFolder)

	if err != nil {
		u.logger.LogError(err, "Error reading data folder", "function", "UploadRecordings", "folder_name", u.dataFolder)
		return apperror.ServerError.Wrap(err)
	}

	_, active := u.active()

	for _, file := range files {
		if file == active {
			continue
		}

		u.mu.Lock()
		u.uploadName = file
		u.mu.Unlock()

		_ = u.uploadOne(file)
	}

	return nil
}

func (u *Uploader) uploadOne(filename string) error {
	local := filepath.Join(u.dataFolder, filename)
	u.logger.LogInfo("Uploading file to S3", "file_name", filename)

	err := u.put(local, fmt.Sprintf("%s/recordings/%s", u.hostname, filename), "text/csv")
	metrics.IncUpload("recording", err)

	if err != nil {
		u.logger.LogError(err, "Error uploading file to S3", "folder_name", u.dataFolder, "file_name", filename)
		return err
	}

	meta := recorder.MetadataName(filename)
	metaLocal := filepath.Join(u.dataFolder, meta)
	if _, statErr := os.Stat(metaLocal); statErr == nil {
		if err := u.put(metaLocal, fmt.Sprintf("%s/recordings/%s", u.hostname, meta), "application/json"); err != nil {
			u.logger.LogError(err, "Error uploading metadata to S3", "file_name", meta)
			return err
		}
		if err := os.Remove(metaLocal); err != nil {
			u.logger.LogError(err, "Error deleting file", "folder_name", u.dataFolder, "file_name", meta)
		}
	}

	u.logger.LogInfo("Successful upload to S3", "folder_name", u.dataFolder, "file_name", filename)

	if err := os.Remove(local); err != nil {
		u.logger.LogError(err, "Error deleting file", "folder_name", u.dataFolder, "file_name", filename)
		return err
	}

	u.logger.LogInfo("Successful deletion of file", "folder_name", u.dataFolder, "file_name", filename)

	return nil
}

func (u *Uploader) put(local, key, contentType string) error {
	contents, err := os.ReadFile(local)

	if err != nil {
		return err
	}

	_, err = u.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ACL:         aws.String("private"),
		Body:        bytes.NewReader(contents),
		ContentType: aws.String(contentType),
	})

	return err
}

func (u *Uploader) begin(filename string) error {
	if recording, active := u.active(); recording && filename != "" && filename == active {
		u.logger.LogError(errors.New("recording in progress"), "Cannot upload recording while recording is in progress", "file_name", filename)
		return apperror.Conflict.SetMessage("Cannot upload a recording while it is being written")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.isUploading {
		u.logger.LogError(errors.New("upload in progress"), "Cannot upload recording while another upload is in progress")
		return apperror.ServiceUnavailable.SetMessage("Cannot upload recording while another upload is in progress")
	}

	u.isUploading = true
	u.uploadName = filename

	return nil
}

func (u *Uploader) end() {
	u.mu.Lock()
	u.isUploading = false
	u.uploadName = ""
	u.mu.Unlock()
}

// Recordings lists recording files in folder in name order.
func Recordings(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != recorder.Extension {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

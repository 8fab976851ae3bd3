package logger

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	logger   *logrus.Logger
	filename string
}

// NewLogger writes JSON lines to filename, rotating it once it grows past
// 10MB. Rotated backups stay in the same folder until uploaded.
func NewLogger(filename string) (*Logger, error) {
	dirname := filepath.Dir(filename)
	_, err := os.Stat(dirname)

	if err != nil {
		err = os.MkdirAll(dirname, 0755)
		if err != nil {
			return nil, err
		}
	}

	l := NewWithWriter(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10,
		MaxBackups: 20,
		MaxAge:     30,
	})
	l.filename = filename

	return l, nil
}

func NewWithWriter(w io.Writer) *Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(w)

	return &Logger{
		logger: logger,
	}
}

// Filename is the active log file, empty for writer-backed loggers.
func (l *Logger) Filename() string {
	return l.filename
}

func convertToFields(values []any) (fields logrus.Fields) {
	fields = make(logrus.Fields)
	for i := 0; i <= len(values)-2; i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields[key] = values[i+1]
	}
	return
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// LogRequest : Logging Middleware
func (l *Logger) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"uri":    r.RequestURI,
			"status": rec.status,
		}).Info("request received")
	})
}

func (l *Logger) LogError(err error, msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		extras = append(extras, "message", msg)
		l.logger.WithFields(convertToFields(extras)).Errorln(err)
		return
	}
	l.logger.WithFields(logrus.Fields{
		"message": msg,
	}).Errorln(err)
}

func (l *Logger) LogInfo(msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		l.logger.WithFields(convertToFields(extras)).Infoln(msg)
		return
	}
	l.logger.Infoln(msg)
}

func (l *Logger) LogWarning(err error, msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		extras = append(extras, "message", msg)
		l.logger.WithFields(convertToFields(extras)).Warnln(err)
		return
	}
	l.logger.WithFields(logrus.Fields{
		"message": msg,
	}).Warnln(err)
}

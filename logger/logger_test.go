package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLogErrorCarriesExtras(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.LogError(errors.New("disk full"), "Error writing sample", "filename", "rec1.csv", "rows", 12)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Error writing sample", entry["message"])
	assert.Equal(t, "rec1.csv", entry["filename"])
	assert.EqualValues(t, 12, entry["rows"])
	assert.Contains(t, entry["msg"], "disk full")
}

func TestLogInfoIgnoresOddExtras(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.LogInfo("recording stopped", "filename")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.NotContains(t, entry, "filename")
}

func TestLogRequestRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	h := l.LogRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/stop.json", nil))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/stop.json", entry["uri"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}

func TestNewLoggerCreatesFolder(t *testing.T) {
	name := filepath.Join(t.TempDir(), "nested", "mccdaq.log")

	l, err := NewLogger(name)
	require.NoError(t, err)
	assert.Equal(t, name, l.Filename())

	l.LogInfo("hello")
	assert.FileExists(t, name)
}

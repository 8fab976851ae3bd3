package recorder

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mccdaq/logger"
	"mccdaq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T, pos *models.Position) *Recorder {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "data"), func() models.Position { return *pos }, logger.NewWithWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }
	return r
}

func readSession(t *testing.T, r *Recorder, name string) models.Session {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.folder, MetadataName(name)))
	require.NoError(t, err)
	var s models.Session
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestStartStopLifecycle(t *testing.T) {
	pos := models.Position{}
	r := newTestRecorder(t, &pos)

	assert.Equal(t, models.RecordingStatus{}, r.Status())

	st, err := r.Start("Bed Level", "probe run")
	require.NoError(t, err)
	assert.True(t, st.Recording)
	assert.Equal(t, "bed-level_20240309-140506.csv", st.Filename)

	st, err = r.Stop()
	require.NoError(t, err)
	assert.False(t, st.Recording)
	assert.Equal(t, "bed-level_20240309-140506.csv", st.Filename)

	sess := readSession(t, r, st.Filename)
	assert.Equal(t, "Bed Level", sess.Title)
	assert.Equal(t, "probe run", sess.Content)
	assert.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.StoppedAt)
}

func TestStopWhenIdle(t *testing.T) {
	pos := models.Position{}
	r := newTestRecorder(t, &pos)

	st, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatus{}, st)
}

func TestSamplesAreOffsetFromStartPosition(t *testing.T) {
	pos := models.Position{X: 12.5, Y: -3, Z: 1}
	r := newTestRecorder(t, &pos)

	require.NoError(t, r.WriteSamples([]models.Sample{{Time: 1, X: 99}}))

	st, err := r.Start("", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(st.Filename, "recording_"))

	require.NoError(t, r.WriteSamples([]models.Sample{
		{Time: 1000, X: 12.5, Y: -3, Z: 1},
		{Time: 2000, X: 13.5, Y: -1, Z: 0.5},
	}))
	_, err = r.Stop()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(r.folder, st.Filename))
	require.NoError(t, err)
	assert.Equal(t, "time_us,x_mm,y_mm,z_mm\n"+
		"1000,0.0000,0.0000,0.0000\n"+
		"2000,1.0000,2.0000,-0.5000\n", string(data))

	sess := readSession(t, r, st.Filename)
	assert.Equal(t, 2, sess.Samples)
	assert.Equal(t, models.Position{X: -12.5, Y: 3, Z: -1}, sess.Offset)
}

func TestStartWhileRecordingRollsOver(t *testing.T) {
	pos := models.Position{}
	r := newTestRecorder(t, &pos)

	first, err := r.Start("run", "")
	require.NoError(t, err)
	second, err := r.Start("run", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.Filename, second.Filename)
	assert.Equal(t, "run_20240309-140506-2.csv", second.Filename)
	assert.NotNil(t, readSession(t, r, first.Filename).StoppedAt)

	recording, name := r.RecordingStats()
	assert.True(t, recording)
	assert.Equal(t, second.Filename, name)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Bed Level":         "bed-level",
		"  x/y calibration": "x-y-calibration",
		"../../etc/passwd":  "etc-passwd",
		"":                  "recording",
		"!!!":               "recording",
		"run_2":             "run_2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}

	assert.Equal(t, strings.Repeat("a", 48), Slug(strings.Repeat("a", 60)))
}

func TestMetadataName(t *testing.T) {
	assert.Equal(t, "rec1.json", MetadataName("rec1.csv"))
}

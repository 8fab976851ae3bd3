package statusync

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"mccdaq/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op             string
	title, content string
}

type fakeAPI struct {
	calls  []call
	status models.RecordingStatus
	err    error
	view   *TerminalView
	// inputsAtCall records what the view held when the request went out.
	inputsAtCall [2]string
}

func (f *fakeAPI) Status(context.Context) (models.RecordingStatus, error) {
	f.calls = append(f.calls, call{op: "status"})
	return f.status, f.err
}

func (f *fakeAPI) Start(_ context.Context, title, content string) (models.RecordingStatus, error) {
	f.calls = append(f.calls, call{op: "start", title: title, content: content})
	if f.view != nil {
		f.inputsAtCall = [2]string{f.view.Title(), f.view.Content()}
	}
	return f.status, f.err
}

func (f *fakeAPI) Stop(context.Context) (models.RecordingStatus, error) {
	f.calls = append(f.calls, call{op: "stop"})
	return f.status, f.err
}

func assertShowing(t *testing.T, v *TerminalView, recording bool, filename string) {
	t.Helper()
	assert.Equal(t, recording, v.Visible(Recording), "recording indicator")
	assert.Equal(t, !recording, v.Visible(Stopped), "stopped indicator")
	assert.Equal(t, filename, v.Filename())
}

func TestRenderKeepsIndicatorsExclusive(t *testing.T) {
	v := NewTerminalView("", "")
	s := NewSyncer(&fakeAPI{}, v)

	for _, st := range []models.RecordingStatus{
		{Recording: true, Filename: "a.csv"},
		{Recording: true, Filename: "a.csv"},
		{Recording: false, Filename: "a.csv"},
		{Recording: false},
		{Recording: true, Filename: "b.csv"},
	} {
		s.Render(st)
		assertShowing(t, v, st.Recording, st.Filename)
	}
}

func TestPageLoadScenario(t *testing.T) {
	api := &fakeAPI{status: models.RecordingStatus{Recording: false, Filename: ""}}
	v := NewTerminalView("", "")
	s := NewSyncer(api, v)

	require.NoError(t, s.Initialize(context.Background()))

	assert.Equal(t, []call{{op: "status"}}, api.calls)
	assertShowing(t, v, false, "")
}

func TestStartScenario(t *testing.T) {
	v := NewTerminalView("A", "B")
	api := &fakeAPI{status: models.RecordingStatus{Recording: true, Filename: "rec1.csv"}, view: v}
	s := NewSyncer(api, v)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, []call{{op: "start", title: "A", content: "B"}}, api.calls)
	assertShowing(t, v, true, "rec1.csv")
	assert.Empty(t, v.Title())
	assert.Empty(t, v.Content())
	assert.Equal(t, [2]string{"", ""}, api.inputsAtCall)
}

func TestStopScenario(t *testing.T) {
	v := NewTerminalView("", "")
	api := &fakeAPI{status: models.RecordingStatus{Recording: true, Filename: "rec1.csv"}}
	s := NewSyncer(api, v)
	require.NoError(t, s.Initialize(context.Background()))

	api.status = models.RecordingStatus{Recording: false, Filename: "rec1.csv"}
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, "stop", api.calls[len(api.calls)-1].op)
	assertShowing(t, v, false, "rec1.csv")
}

func TestStartClearsInputsOnFailure(t *testing.T) {
	v := NewTerminalView("A", "B")
	api := &fakeAPI{err: errors.New("connection refused")}
	s := NewSyncer(api, v)

	assert.Error(t, s.Start(context.Background()))
	assert.Empty(t, v.Title())
	assert.Empty(t, v.Content())
}

func TestFailuresLeaveViewUntouched(t *testing.T) {
	v := NewTerminalView("", "")
	api := &fakeAPI{status: models.RecordingStatus{Recording: true, Filename: "rec1.csv"}}
	s := NewSyncer(api, v)
	require.NoError(t, s.Initialize(context.Background()))

	api.err = errors.New("timeout")
	api.status = models.RecordingStatus{}
	assert.Error(t, s.Initialize(context.Background()))
	assert.Error(t, s.Stop(context.Background()))

	assertShowing(t, v, true, "rec1.csv")
}

func TestDefaultViewShowsNothing(t *testing.T) {
	v := NewTerminalView("", "")

	var buf bytes.Buffer
	require.NoError(t, v.Print(&buf))
	assert.Equal(t, "unknown   \n", buf.String())

	NewSyncer(&fakeAPI{}, v).Render(models.RecordingStatus{Recording: true, Filename: "rec1.csv"})
	buf.Reset()
	require.NoError(t, v.Print(&buf))
	assert.Equal(t, "recording rec1.csv\n", buf.String())
}

// replyAPI answers every call with a fixed status and keeps no state.
type replyAPI struct {
	started, stopped models.RecordingStatus
}

func (a replyAPI) Status(context.Context) (models.RecordingStatus, error) { return a.stopped, nil }

func (a replyAPI) Start(context.Context, string, string) (models.RecordingStatus, error) {
	return a.started, nil
}

func (a replyAPI) Stop(context.Context) (models.RecordingStatus, error) { return a.stopped, nil }

// yieldingView gives other goroutines a chance to run in the middle of a
// render.
type yieldingView struct {
	*TerminalView
}

func (v yieldingView) Hide(i Indicator) {
	runtime.Gosched()
	v.TerminalView.Hide(i)
	runtime.Gosched()
}

func TestConcurrentStartStopRenderOneResponse(t *testing.T) {
	api := replyAPI{
		started: models.RecordingStatus{Recording: true, Filename: "rec1.csv"},
		stopped: models.RecordingStatus{Recording: false, Filename: "rec0.csv"},
	}

	for i := 0; i < 500; i++ {
		v := NewTerminalView("A", "B")
		s := NewSyncer(api, yieldingView{v})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Start(context.Background()))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Stop(context.Background()))
		}()
		wg.Wait()

		require.NotEqual(t, v.Visible(Recording), v.Visible(Stopped), "iteration %d", i)
		if v.Visible(Recording) {
			require.Equal(t, "rec1.csv", v.Filename(), "iteration %d", i)
		} else {
			require.Equal(t, "rec0.csv", v.Filename(), "iteration %d", i)
		}
	}
}

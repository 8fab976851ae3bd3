package statusync

import (
	"context"
	"sync"

	"mccdaq/models"
)

// Indicator is one of the two mutually exclusive state displays.
type Indicator int

const (
	Stopped Indicator = iota
	Recording
)

func (i Indicator) String() string {
	if i == Recording {
		return "recording"
	}
	return "stopped"
}

// View is the surface a Syncer drives: two text inputs, two indicators and a
// filename display.
type View interface {
	Title() string
	Content() string
	ClearInputs()
	Show(Indicator)
	Hide(Indicator)
	SetFilename(string)
}

// API is the recorder protocol. *Client implements it.
type API interface {
	Status(ctx context.Context) (models.RecordingStatus, error)
	Start(ctx context.Context, title, content string) (models.RecordingStatus, error)
	Stop(ctx context.Context) (models.RecordingStatus, error)
}

// Syncer renders server responses onto a view. It keeps no state of its own;
// with overlapping calls the last response to arrive wins.
type Syncer struct {
	api  API
	view View

	renderMu sync.Mutex
}

// NewSyncer drives view from the responses of api.
func NewSyncer(api API, view View) *Syncer {
	return &Syncer{api: api, view: view}
}

// Initialize renders the current status. On error the view is untouched.
func (s *Syncer) Initialize(ctx context.Context) error {
	status, err := s.api.Status(ctx)
	if err != nil {
		return err
	}
	s.Render(status)
	return nil
}

// Start sends the view's title and content and renders the reply. The inputs
// are cleared as soon as they are read, whether or not the request succeeds.
func (s *Syncer) Start(ctx context.Context) error {
	title, content := s.view.Title(), s.view.Content()
	s.view.ClearInputs()

	status, err := s.api.Start(ctx, title, content)
	if err != nil {
		return err
	}
	s.Render(status)
	return nil
}

// Stop ends the recording and renders the reply.
func (s *Syncer) Stop(ctx context.Context) error {
	status, err := s.api.Stop(ctx)
	if err != nil {
		return err
	}
	s.Render(status)
	return nil
}

// Render shows exactly one indicator and the reported filename. Concurrent
// renders do not interleave.
func (s *Syncer) Render(status models.RecordingStatus) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	if status.Recording {
		s.view.Hide(Stopped)
		s.view.Show(Recording)
	} else {
		s.view.Hide(Recording)
		s.view.Show(Stopped)
	}
	s.view.SetFilename(status.Filename)
}

// Watcher is implemented by APIs that can push status changes.
type Watcher interface {
	Watch(ctx context.Context, fn func(models.RecordingStatus)) error
}

// Follow renders every pushed status until ctx ends.
func (s *Syncer) Follow(ctx context.Context, w Watcher) error {
	return w.Watch(ctx, s.Render)
}

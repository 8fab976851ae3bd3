package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// maxPending bounds how many frames a StreamSource holds between reads.
const maxPending = 100000

// StreamSource parses frames written one per line by an external scanner,
// five comma or space separated counter values per line.
type StreamSource struct {
	closer io.Closer

	mu      sync.Mutex
	pending []Frame
	dropped int
	err     error
}

func NewStreamSource(r io.Reader, closer io.Closer) *StreamSource {
	s := &StreamSource{closer: closer}
	go s.scan(r)
	return s
}

// StartScanner launches command and reads frames from its stdout.
func StartScanner(command string, args ...string) (*StreamSource, error) {
	cmd := exec.Command(command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return NewStreamSource(stdout, processCloser{cmd}), nil
}

func (s *StreamSource) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		f, err := ParseFrame(sc.Text())
		if err != nil {
			continue
		}

		s.mu.Lock()
		if len(s.pending) >= maxPending {
			s.pending = s.pending[1:]
			s.dropped++
		}
		s.pending = append(s.pending, f)
		s.mu.Unlock()
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}

	s.mu.Lock()
	s.err = fmt.Errorf("scanner stream ended: %w", err)
	s.mu.Unlock()
}

func (s *StreamSource) Read(ctx context.Context) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 && s.err != nil {
		return nil, s.err
	}

	frames := s.pending
	s.pending = nil
	return frames, nil
}

// Dropped counts frames discarded because nobody read them in time.
func (s *StreamSource) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseFrame reads one line of counter values.
func ParseFrame(line string) (Frame, error) {
	var f Frame

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != Channels {
		return f, fmt.Errorf("want %d counters, got %d", Channels, len(fields))
	}

	for i, field := range fields {
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return f, err
		}
		f[i] = v
	}

	return f, nil
}

type processCloser struct {
	cmd *exec.Cmd
}

func (p processCloser) Close() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	_ = p.cmd.Wait()
	return nil
}

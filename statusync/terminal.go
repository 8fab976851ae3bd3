package statusync

import (
	"fmt"
	"io"
	"sync"
)

// TerminalView keeps view state in memory and prints it on demand. Inputs
// are preset by the caller, typically from command line flags.
type TerminalView struct {
	mu       sync.Mutex
	title    string
	content  string
	visible  [2]bool
	filename string
}

func NewTerminalView(title, content string) *TerminalView {
	return &TerminalView{title: title, content: content}
}

func (v *TerminalView) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

func (v *TerminalView) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

func (v *TerminalView) ClearInputs() {
	v.mu.Lock()
	v.title, v.content = "", ""
	v.mu.Unlock()
}

func (v *TerminalView) Show(i Indicator) { v.set(i, true) }

func (v *TerminalView) Hide(i Indicator) { v.set(i, false) }

func (v *TerminalView) SetFilename(name string) {
	v.mu.Lock()
	v.filename = name
	v.mu.Unlock()
}

func (v *TerminalView) Visible(i Indicator) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible[i]
}

func (v *TerminalView) Filename() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filename
}

// Print writes the visible indicators and the filename as one line.
func (v *TerminalView) Print(w io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := ""
	for _, i := range []Indicator{Stopped, Recording} {
		if v.visible[i] {
			if state != "" {
				state += "+"
			}
			state += i.String()
		}
	}
	if state == "" {
		state = "unknown"
	}

	_, err := fmt.Fprintf(w, "%-9s %s\n", state, v.filename)
	return err
}

func (v *TerminalView) set(i Indicator, on bool) {
	v.mu.Lock()
	v.visible[i] = on
	v.mu.Unlock()
}

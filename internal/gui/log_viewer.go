package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// LogViewer is a widget that displays log messages, oldest first.
// It is also an io.Writer so the zerolog logger can write to it.
type LogViewer struct {
	widget.BaseWidget

	container   *fyne.Container
	titleLabel  *widget.Label
	clearButton *widget.Button
	logEntry    *widget.Entry
	scrollView  *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int
	partial     string
}

// NewLogViewer creates a new log viewer widget
func NewLogViewer(title string) *LogViewer {
	v := &LogViewer{
		maxMessages: 1000, // Keep last 1000 messages
	}

	// Read-only multiline entry
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable()
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 220))

	v.titleLabel = widget.NewLabel(title)
	v.clearButton = widget.NewButtonWithIcon("", theme.DeleteIcon(), v.Clear)
	v.clearButton.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, nil, v.clearButton, v.titleLabel)
	v.container = container.NewBorder(header, nil, nil, nil, v.scrollView)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// SetTitle changes the label above the log
func (v *LogViewer) SetTitle(title string) {
	fyne.Do(func() {
		v.titleLabel.SetText(title)
	})
}

// Write implements io.Writer. Complete lines become messages.
func (v *LogViewer) Write(p []byte) (int, error) {
	v.mu.Lock()
	text := v.partial + string(p)
	lines := strings.Split(text, "\n")
	v.partial = lines[len(lines)-1]
	v.mu.Unlock()

	for _, line := range lines[:len(lines)-1] {
		if line = strings.TrimRight(line, "\r "); line != "" {
			v.append(line)
		}
	}
	return len(p), nil
}

// AddMessage adds a message with a timestamp to the log
func (v *LogViewer) AddMessage(message string) {
	v.append(fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
}

// Log adds a formatted message to the log
func (v *LogViewer) Log(format string, args ...interface{}) {
	v.AddMessage(fmt.Sprintf(format, args...))
}

func (v *LogViewer) append(line string) {
	v.mu.Lock()
	v.messages = append(v.messages, line)
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[len(v.messages)-v.maxMessages:]
	}
	text := strings.Join(v.messages, "\n")
	v.mu.Unlock()

	// Update UI on main thread
	fyne.Do(func() {
		v.logEntry.SetText(text)
		v.scrollView.ScrollToBottom()
	})
}

// Clear clears all log messages
func (v *LogViewer) Clear() {
	v.mu.Lock()
	v.messages = v.messages[:0]
	v.mu.Unlock()

	fyne.Do(func() {
		v.logEntry.SetText("")
		v.scrollView.ScrollToTop()
	})
}

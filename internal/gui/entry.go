package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// CustomEntry extends widget.Entry to handle the Escape and Return keys
type CustomEntry struct {
	widget.Entry
	onEscape func()
	onReturn func()
}

// NewCustomEntry creates a new custom single-line entry
func NewCustomEntry() *CustomEntry {
	entry := &CustomEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey handles key events
func (e *CustomEntry) TypedKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyEscape:
		if e.onEscape != nil {
			e.onEscape()
			return
		}
	case fyne.KeyReturn, fyne.KeyEnter:
		if e.onReturn != nil {
			e.onReturn()
			return
		}
	}
	e.Entry.TypedKey(key)
}

// SetOnEscape sets the callback for when Escape is pressed
func (e *CustomEntry) SetOnEscape(f func()) {
	e.onEscape = f
}

// SetOnReturn sets the callback for when Return is pressed
func (e *CustomEntry) SetOnReturn(f func()) {
	e.onReturn = f
}

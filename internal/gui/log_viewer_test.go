package gui

import (
	"fmt"
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestLogViewer_Write(t *testing.T) {
	test.NewTempApp(t)

	v := NewLogViewer("Log")
	fmt.Fprint(v, "first line\nsecond ")
	fmt.Fprint(v, "line\n\n")

	if len(v.messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d: %v", len(v.messages), v.messages)
	}
	if v.messages[1] != "second line" {
		t.Errorf("Expected partial writes to be joined, got %q", v.messages[1])
	}
}

func TestLogViewer_ClearButton(t *testing.T) {
	test.NewTempApp(t)

	v := NewLogViewer("Log")
	v.AddMessage("Started")
	fmt.Fprintln(v, "WRN something happened")

	if !strings.Contains(v.logEntry.Text, "Started") {
		t.Fatalf("Expected message in the log, got %q", v.logEntry.Text)
	}

	test.Tap(v.clearButton)

	if len(v.messages) != 0 {
		t.Errorf("Expected no messages after clearing, got %v", v.messages)
	}
	if v.logEntry.Text != "" {
		t.Errorf("Expected empty log, got %q", v.logEntry.Text)
	}

	v.AddMessage("Again")
	if strings.Contains(v.logEntry.Text, "Started") {
		t.Error("Cleared messages came back")
	}
}

package convert

import (
	"errors"
	"fmt"
)

type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is what a shell shows the user when a conversion fails.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"error"`
	Hint  string `json:"hint"`
}

// Describe turns a conversion error into a user facing message. Finding no
// tables is a warning that suggests the other mode; everything else is an
// error with a generic hint.
func Describe(err error, mode Mode) Message {
	if mode == "" {
		mode = ModeBordered
	}
	if errors.Is(err, ErrNoTablesFound) {
		return Message{
			Level: LevelWarning,
			Text:  "No tables were found in the PDF.",
			Hint:  fmt.Sprintf("Try switching the extraction mode from %q to %q.", mode.Label(), mode.Alternate().Label()),
		}
	}
	return Message{
		Level: LevelError,
		Text:  fmt.Sprintf("Conversion failed: %v", err),
		Hint:  "Make sure the PDF contains well structured tables and try the other extraction mode.",
	}
}

// Package diag defines the diagnostics produced by the quill parser and
// compiler. A Diagnostic is a severity, a 1-based source position, and a
// message; a Bag collects them in report order.
package diag

import "fmt"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

type Diagnostic struct {
	Severity Severity
	Line     int
	Col      int
	Message  string
}

// String renders the diagnostic as "line(col): message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d(%d): %s", d.Line, d.Col, d.Message)
}

// Bag is an append-only diagnostic collector.
type Bag struct {
	diags []Diagnostic
}

func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

func (b *Bag) Errorf(line, col int, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SevError, Line: line, Col: col, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Warnf(line, col int, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SevWarning, Line: line, Col: col, Message: fmt.Sprintf(format, args...)})
}

// All returns the collected diagnostics in report order.
func (b *Bag) All() []Diagnostic {
	return b.diags
}

func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Errors filters a diagnostic list down to its error-severity entries.
func Errors(diags []Diagnostic) []Diagnostic {
	var errs []Diagnostic
	for _, d := range diags {
		if d.Severity == SevError {
			errs = append(errs, d)
		}
	}
	return errs
}

package models

import "fmt"

// Warning is a field that could not be filled or verified.
// Warnings never abort a run; the browser is left open for manual fixes.
type Warning struct {
	Step    string
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Step, w.Field, w.Message)
}

// Report summarizes one upload run
type Report struct {
	RunID         string
	Team          string
	PlayersFilled int
	SetsFilled    int
	Saved         bool
	Warnings      []Warning
}

// Warn appends a soft failure to the report
func (r *Report) Warn(step, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Step:    step,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Complete reports whether the run saved the form without warnings
func (r *Report) Complete() bool {
	return r.Saved && len(r.Warnings) == 0
}

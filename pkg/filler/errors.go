package filler

import (
	"fmt"
	"strings"
)

// Step names a stage of the upload
type Step string

// Stages in the order Run executes them
const (
	StepLogin        Step = "login"
	StepTeamPage     Step = "team page"
	StepOpenForm     Step = "open form"
	StepFillHeader   Step = "fill header"
	StepSubmitHeader Step = "submit header"
	StepWaitEditor   Step = "wait online editor"
	StepFillLineup   Step = "fill lineup"
	StepSave         Step = "save"
)

// NavigationError means an expected page, link or form never appeared.
// It aborts the run.
type NavigationError struct {
	Step   Step
	Msg    string
	Err    error
	Dumped bool // a DOM and screenshot dump was written
}

func (e *NavigationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Step, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// SubmitValidationError means the registry rejected the header form
type SubmitValidationError struct {
	Attempts int
	Messages []string
}

func (e *SubmitValidationError) Error() string {
	return fmt.Sprintf("header rejected after %d attempt(s): %s", e.Attempts, strings.Join(e.Messages, "; "))
}

package authkit

import "fmt"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// FlowStage tracks the progression of a credential flow
type FlowStage = string

const (
	// StageReceived is the initial stage, input accepted but unchecked
	StageReceived FlowStage = "received"
	// StageValidated means token/password checks passed
	StageValidated FlowStage = "validated"
	// StageAccepted is the terminal success stage
	StageAccepted FlowStage = "accepted"
	// StageRejected is the terminal failure stage
	StageRejected FlowStage = "rejected"
)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

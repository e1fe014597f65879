// Package errors defines the closed set of error kinds the engine can
// return, in the style of github.com/grailbio/base/errors: a small
// structured Error carrying an Op (where), a Kind (what sort of failure)
// and an underlying cause.
package errors

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

// Kind classifies an Error so callers can switch on failure category
// without string matching. See spec.md §7.
type Kind int

const (
	Other Kind = iota
	PlanInvalid
	InputOpen
	InputFormat
	InputParse
	InputDecompress
	SegmentLengthMismatch
	OutputOpen
	OutputWrite
	OutputExists
	StepRuntime
	WorkerPanicked
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case PlanInvalid:
		return "PlanInvalid"
	case InputOpen:
		return "InputOpen"
	case InputFormat:
		return "InputFormat"
	case InputParse:
		return "InputParse"
	case InputDecompress:
		return "InputDecompress"
	case SegmentLengthMismatch:
		return "SegmentLengthMismatch"
	case OutputOpen:
		return "OutputOpen"
	case OutputWrite:
		return "OutputWrite"
	case OutputExists:
		return "OutputExists"
	case StepRuntime:
		return "StepRuntime"
	case WorkerPanicked:
		return "WorkerPanicked"
	case Cancelled:
		return "Cancelled"
	default:
		return "Other"
	}
}

// Op names the operation or component that raised the error, e.g.
// "input.fastq.Parse" or "output.Sink.Write".
type Op string

// Error is the engine's structured error. It is always produced through E.
type Error struct {
	Op   Op
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b bytes.Buffer
	if e.Op != "" {
		fmt.Fprintf(&b, "%s: ", e.Op)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "%s: ", e.Path)
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error from its arguments. Recognized argument types:
// Op, Kind, string (path, first one wins), error (wrapped cause).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch v := arg.(type) {
		case Op:
			e.Op = v
		case Kind:
			e.Kind = v
		case string:
			if e.Path == "" {
				e.Path = v
			}
		case error:
			e.Err = v
		}
	}
	return e
}

// Is reports whether err is an *Error of the given Kind.
func Is(kind Kind, err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Once accumulates the first error set on it across goroutines, mirroring
// github.com/grailbio/base/errors.Once: cheap to call from many workers,
// only the first failure is retained.
type Once struct {
	mu  sync.Mutex
	err error
}

// Set records err if this is the first non-nil error seen.
func (o *Once) Set(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

// Err returns the first error recorded, or nil.
func (o *Once) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// New is a convenience wrapper around the standard errors.New, kept so
// callers in this module don't need to import both packages.
func New(s string) error { return errors.New(s) }

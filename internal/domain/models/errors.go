package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutOfRangeEpoch      = errors.New("instant outside supported ephemeris range")
	ErrHouseSystemUndefined = errors.New("house system undefined at location")
	ErrInvalidHouseGeometry = errors.New("invalid house geometry")
	ErrInvalidInputRange    = errors.New("input out of valid range")
)

// Stage names the part of the computation that failed.
type Stage string

const (
	StageInput     Stage = "input"
	StageEphemeris Stage = "ephemeris"
	StageHouses    Stage = "houses"
	StageSigns     Stage = "signs"
	StageAssign    Stage = "house_assignment"
	StageAspects   Stage = "aspects"
)

// ChartError carries the kind of a chart failure plus where it happened.
type ChartError struct {
	Kind  error
	Stage Stage
	Body  Body
	Msg   string
}

func (e *ChartError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{string(e.Stage)}
	if e.Body != "" {
		parts = append(parts, string(e.Body))
	}
	prefix := strings.Join(parts, "/")
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", prefix, e.Kind.Error())
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Kind.Error(), e.Msg)
}

func (e *ChartError) Unwrap() error { return e.Kind }

// NewChartError builds a ChartError with a formatted message.
func NewChartError(kind error, stage Stage, body Body, format string, args ...any) *ChartError {
	return &ChartError{Kind: kind, Stage: stage, Body: body, Msg: fmt.Sprintf(format, args...)}
}

// ErrorKind returns a short label for the kind of err, for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRangeEpoch):
		return "out_of_range_epoch"
	case errors.Is(err, ErrHouseSystemUndefined):
		return "house_system_undefined"
	case errors.Is(err, ErrInvalidHouseGeometry):
		return "invalid_house_geometry"
	case errors.Is(err, ErrInvalidInputRange):
		return "invalid_input_range"
	default:
		return "internal"
	}
}

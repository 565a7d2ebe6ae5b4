package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrors is the key under which errors about a combination of fields
// are reported.
const NonFieldErrors = "non_field_errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrRoomNotFound is returned by stores when a booking references a room that does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrOverlappingDates is the client-visible code for a booking overlap.
	ErrOverlappingDates = errors.New("OVERLAPPING_DATES")
)

// ValidationError collects messages per field. Several fields may fail at once.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// IsCrossField reports whether the only failures are non-field errors.
func (e *ValidationError) IsCrossField() bool {
	if e.Empty() {
		return false
	}
	_, ok := e.Fields[NonFieldErrors]
	return ok && len(e.Fields) == 1
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// OverlapError rejects a booking whose dates intersect an existing booking of
// the same room.
type OverlapError struct {
	RoomID     int64
	ConflictID int64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("booking overlaps booking %d of room %d", e.ConflictID, e.RoomID)
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlappingDates }

// ReferenceError reports a request field that points at a room that does not exist.
type ReferenceError struct {
	Field string
	Value string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: room %s does not exist", e.Field, e.Value)
}

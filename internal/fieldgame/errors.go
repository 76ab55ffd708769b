package fieldgame

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStateConflict is returned when verifying or denying a submission
	// that is no longer pending.
	ErrStateConflict = errors.New("submission is not pending")

	// ErrBlocked is returned when queue enforcement is on and the
	// submission still waits for another one.
	ErrBlocked = errors.New("submission is queued behind another submission")

	ErrSessionBlocked = errors.New("session temporarily blocked due to too many join attempts")
	ErrTeamLocked     = errors.New("device is already locked to another team")
)

// BaseField collects validation messages that do not belong to one input.
const BaseField = "base"

// ValidationError carries field-level messages for a rejected submission.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Messages returns every message, base messages first, then fields by name.
func (e *ValidationError) Messages() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		if name != BaseField {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	msgs := append([]string(nil), e.Fields[BaseField]...)
	for _, name := range names {
		for _, m := range e.Fields[name] {
			msgs = append(msgs, name+" "+m)
		}
	}
	return msgs
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), ", ")
}

// ScoringInvariantError means the scoring engine was handed an action whose
// referenced team or checkpoint does not exist. The verification must be
// rolled back and investigated.
type ScoringInvariantError struct {
	Kind    Kind
	Missing string
}

func (e *ScoringInvariantError) Error() string {
	return fmt.Sprintf("scoring %s: missing %s", e.Kind, e.Missing)
}

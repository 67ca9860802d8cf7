package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingRule reports a node that no registered rule accepts.
	ErrNoMatchingRule = errors.New("no rule matches node")
	// ErrDuplicateRule reports a rule name that is already registered.
	ErrDuplicateRule = errors.New("rule already registered")
	// ErrRuleNotFound reports a rule name that is not registered.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrInvalidOption reports an out-of-range option value.
	ErrInvalidOption = errors.New("invalid option")
)

// NoMatchError is returned when traversal reaches a node no rule matches.
// With the default registry this cannot happen, since the text rule matches everything.
type NoMatchError struct {
	Tag  string
	Path string
}

func (e *NoMatchError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("no rule matches node at %s", e.Path)
	}
	return fmt.Sprintf("no rule matches <%s> at %s", e.Tag, e.Path)
}

func (e *NoMatchError) Unwrap() error {
	return ErrNoMatchingRule
}

// RuleError wraps a failure raised while a rule rendered a node.
type RuleError struct {
	Rule string
	Tag  string
	Path string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q failed at %s: %v", e.Rule, e.Path, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

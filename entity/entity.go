// Package entity defines the storable entity kinds and their field
// validation rules.
package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Fields is a named field bundle, as supplied to constructors and as
// persisted to the store.
type Fields map[string]any

// Definition describes a storable entity kind: its discriminator, the
// fields it requires, the rules each field must satisfy, and the
// persistable field set.
type Definition interface {
	// Kind returns the entity kind discriminator.
	Kind() Kind

	// Required returns the names of fields that must be present.
	Required() []string

	// Rules returns the per-field validation rule table.
	Rules() map[string][]Rule

	// Data returns exactly the persistable field set, excluding any
	// internal bookkeeping.
	Data() Fields
}

// ValidationError reports a field bundle that failed construction-time
// validation. It is a distinct failure channel from store errors: callers
// detect it with errors.As.
type ValidationError struct {
	// Kind is the entity kind being constructed.
	Kind Kind

	// Missing lists required fields absent from the bundle.
	Missing []string

	// Violations lists fields whose value broke a rule, with diagnostics.
	Violations []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Violations) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Violations, "; "))
	}
	return fmt.Sprintf("%s validation failed: %s", e.Kind, strings.Join(parts, "; "))
}

// Validate checks a field bundle against an entity kind's required fields
// and rule table. It returns nil when the bundle is valid, otherwise a
// *ValidationError naming every missing field and the first rule violation
// per field.
func Validate(kind Kind, fields Fields, required []string, rules map[string][]Rule) error {
	verr := &ValidationError{Kind: kind}

	for _, name := range required {
		if v, ok := fields[name]; !ok || v == nil {
			verr.Missing = append(verr.Missing, name)
		}
	}

	// Deterministic order for diagnostics.
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := fields[name]
		if !ok || value == nil {
			continue // already reported as missing
		}
		for _, rule := range rules[name] {
			if rule.Violated(value) {
				verr.Violations = append(verr.Violations,
					fmt.Sprintf("%s=%v breaks %s", name, value, rule.Kind))
				break
			}
		}
	}

	if len(verr.Missing) > 0 || len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

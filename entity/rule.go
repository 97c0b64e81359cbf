package entity

import (
	"regexp"
	"unicode/utf8"
)

// RuleKind enumerates the supported validation rule kinds.
type RuleKind int

const (
	// MinLength fails when a string value is shorter than Limit.
	MinLength RuleKind = iota

	// MaxLength fails when a string value is longer than Limit.
	MaxLength

	// MinVal fails when a numeric value is below Limit.
	MinVal

	// MaxVal fails when a numeric value is above Limit.
	MaxVal

	// OfForm fails when a string value does not match Pattern.
	OfForm
)

// String returns the rule kind name.
func (k RuleKind) String() string {
	switch k {
	case MinLength:
		return "minLength"
	case MaxLength:
		return "maxLength"
	case MinVal:
		return "minVal"
	case MaxVal:
		return "maxVal"
	case OfForm:
		return "ofForm"
	default:
		return "unknown"
	}
}

// Rule is a single validation rule: a kind plus its threshold or pattern.
// Limit applies to the length and value kinds, Pattern to OfForm.
type Rule struct {
	Kind    RuleKind
	Limit   int
	Pattern *regexp.Regexp
}

// MinLen returns a rule failing strings shorter than n.
func MinLen(n int) Rule { return Rule{Kind: MinLength, Limit: n} }

// MaxLen returns a rule failing strings longer than n.
func MaxLen(n int) Rule { return Rule{Kind: MaxLength, Limit: n} }

// Min returns a rule failing numeric values below n. Bounds are inclusive:
// the value n itself passes.
func Min(n int) Rule { return Rule{Kind: MinVal, Limit: n} }

// Max returns a rule failing numeric values above n. Bounds are inclusive:
// the value n itself passes.
func Max(n int) Rule { return Rule{Kind: MaxVal, Limit: n} }

// Matches returns a rule failing strings that do not match re.
func Matches(re *regexp.Regexp) Rule { return Rule{Kind: OfForm, Pattern: re} }

// Violated reports whether value breaks the rule. All rules are phrased as
// failure conditions; a value of the wrong type for the rule kind counts
// as a violation.
func (r Rule) Violated(value any) bool {
	switch r.Kind {
	case MinLength:
		s, ok := value.(string)
		return !ok || utf8.RuneCountInString(s) < r.Limit
	case MaxLength:
		s, ok := value.(string)
		return !ok || utf8.RuneCountInString(s) > r.Limit
	case MinVal:
		n, ok := intValue(value)
		return !ok || n < int64(r.Limit)
	case MaxVal:
		n, ok := intValue(value)
		return !ok || n > int64(r.Limit)
	case OfForm:
		s, ok := value.(string)
		return !ok || r.Pattern == nil || !r.Pattern.MatchString(s)
	default:
		return true
	}
}

// intValue coerces the numeric types a field bundle can carry.
// JSON-decoded bundles hold float64; only whole values are accepted.
func intValue(value any) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// Package templates resolves dynamic {{...}} placeholder tokens in filter
// condition values against a per-execution context.
//
// The supported token set lives in one dispatch table so it stays in one
// place and is independently testable.
package templates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExecutionContext is the current-user and current-time snapshot for one
// query execution. Callers capture Now exactly once at their entry point and
// thread the same context through the whole execution, so every relative-date
// token resolved within one execution is mutually consistent.
type ExecutionContext struct {
	CurrentUserID string    // CurrentUserID is empty when no user is authenticated.
	Now           time.Time // Now is the instant the execution started.
}

// NoValue is the sentinel produced when a token cannot resolve to a real
// value (e.g. {{current_user}} without an authenticated user). Conditions
// comparing against NoValue never match: fail closed, not an error.
type NoValue struct{}

// tokenPattern matches the whole-string token syntax, capturing the inner
// expression with surrounding whitespace trimmed by the caller.
var tokenPattern = regexp.MustCompile(`^\{\{(.+)\}\}$`)

// relativeDayPattern matches "now + Nd" / "now - Nd".
var relativeDayPattern = regexp.MustCompile(`^now\s*([+-])\s*(\d+)d$`)

// tokens is the dispatch table for exact token names. Relative-day
// expressions are handled separately because they carry an argument.
var tokens = map[string]func(ExecutionContext) any{
	"current_user": func(ctx ExecutionContext) any {
		if ctx.CurrentUserID == "" {
			return NoValue{}
		}
		return ctx.CurrentUserID
	},
	"now": func(ctx ExecutionContext) any {
		return ctx.Now
	},
	"end_of_week": func(ctx ExecutionContext) any {
		return endOfWeek(ctx.Now)
	},
	"end_of_month": func(ctx ExecutionContext) any {
		return endOfMonth(ctx.Now)
	},
}

// IsToken reports whether a string uses the {{...}} token syntax. Callers
// that cannot resolve tokens (e.g. SQL compilation) use this to detect
// values that require per-execution resolution.
func IsToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// ContainsToken reports whether a condition value holds any template token,
// including inside arrays.
func ContainsToken(value any) bool {
	switch v := value.(type) {
	case string:
		return IsToken(v)
	case []any:
		for i := range v {
			if ContainsToken(v[i]) {
				return true
			}
		}
	case []string:
		for i := range v {
			if IsToken(v[i]) {
				return true
			}
		}
	}
	return false
}

// Resolve resolves template tokens in a condition value.
//
// Strings matching the {{...}} syntax resolve via the token table; any other
// {{...}} token passes through unresolved as a literal string, so it simply
// will not equal real data. Arrays resolve element by element. Resolution
// does not recurse into nested non-array structures. Non-token values are
// returned unchanged.
func Resolve(value any, ctx ExecutionContext) any {
	switch v := value.(type) {
	case string:
		return resolveString(v, ctx)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = Resolve(v[i], ctx)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = resolveString(v[i], ctx)
		}
		return out
	}
	return value
}

func resolveString(s string, ctx ExecutionContext) any {
	m := tokenPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	expr := strings.TrimSpace(m[1])

	if fn, ok := tokens[expr]; ok {
		return fn(ctx)
	}

	if m := relativeDayPattern.FindStringSubmatch(expr); m != nil {
		days, err := strconv.Atoi(m[2])
		if err != nil {
			return s
		}
		if m[1] == "-" {
			days = -days
		}
		return ctx.Now.AddDate(0, 0, days)
	}

	// Unknown token: pass through as a literal.
	return s
}

// endOfWeek returns the last instant of the current week. Weeks start on
// Monday, so the last day is Sunday.
func endOfWeek(now time.Time) time.Time {
	daysUntilSunday := (7 - int(now.Weekday())) % 7
	d := now.AddDate(0, 0, daysUntilSunday)
	return endOfDay(d)
}

// endOfMonth returns the last instant of the current month.
func endOfMonth(now time.Time) time.Time {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	return endOfDay(firstOfNext.AddDate(0, 0, -1))
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// Package expand implements the single-group brace expansion used to write
// families of port names compactly in link configuration.
//
// Supported forms, at most one group per pattern:
//
//	out_{FL,FR}    -> out_FL, out_FR
//	capture_{1..3} -> capture_1, capture_2, capture_3
//	plain          -> plain
//
// A comma anywhere in the group selects enumeration. A ".." selects a numeric
// range only when it follows a purely numeric first alternative; everywhere
// else dots are literal text.
package expand

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxRange bounds the number of strings a numeric range may produce.
const MaxRange = 1 << 16

var (
	ErrUnclosedBrace   = errors.New("must close open brace")
	ErrCloseBeforeOpen = errors.New("closing brace before opening brace")
	ErrMultipleGroups  = errors.New("only one opening brace")
	ErrRangeNotNumeric = errors.New("range must be numeric")
	ErrRangeDecreasing = errors.New("ranges must be increasing")
	ErrRangeTooLarge   = errors.New("range too large")
)

// Error reports a pattern that could not be expanded.
type Error struct {
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expand %q: %v", e.Pattern, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type scanState int

const (
	beforeGroup scanState = iota
	insideGroup
	afterGroup
)

// Expand returns the ordered, non-empty list of strings described by pattern.
func Expand(pattern string) ([]string, error) {
	var (
		prefix   strings.Builder
		suffix   strings.Builder
		current  strings.Builder
		rangeEnd strings.Builder
		alts     []string
		start    string
		inRange  bool
		sawComma bool
		state    = beforeGroup
	)
	fail := func(err error) ([]string, error) {
		return nil, &Error{Pattern: pattern, Err: err}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch state {
		case beforeGroup:
			switch c {
			case '{':
				state = insideGroup
			case '}':
				return fail(ErrCloseBeforeOpen)
			default:
				prefix.WriteByte(c)
			}
		case insideGroup:
			switch {
			case c == '{':
				return fail(ErrMultipleGroups)
			case c == '}':
				if inRange {
					values, err := numericRange(start, rangeEnd.String())
					if err != nil {
						return fail(err)
					}
					alts = values
				} else {
					alts = append(alts, current.String())
				}
				state = afterGroup
			case inRange:
				rangeEnd.WriteByte(c)
			case c == ',':
				sawComma = true
				alts = append(alts, current.String())
				current.Reset()
			case c == '.' && i+1 < len(pattern) && pattern[i+1] == '.' && !sawComma && isNumeric(current.String()):
				inRange = true
				start = current.String()
				i++
			default:
				current.WriteByte(c)
			}
		case afterGroup:
			switch c {
			case '{':
				return fail(ErrMultipleGroups)
			case '}':
				return fail(ErrCloseBeforeOpen)
			default:
				suffix.WriteByte(c)
			}
		}
	}

	switch state {
	case beforeGroup:
		return []string{prefix.String()}, nil
	case insideGroup:
		return fail(ErrUnclosedBrace)
	}

	head, tail := prefix.String(), suffix.String()
	out := make([]string, 0, len(alts))
	seen := make(map[string]struct{}, len(alts))
	for _, alt := range alts {
		if _, dup := seen[alt]; dup {
			continue
		}
		seen[alt] = struct{}{}
		out = append(out, head+alt+tail)
	}
	return out, nil
}

func numericRange(from, to string) ([]string, error) {
	if !isNumeric(to) {
		return nil, ErrRangeNotNumeric
	}
	lo, err := strconv.ParseUint(from, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeNotNumeric, err)
	}
	hi, err := strconv.ParseUint(to, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeNotNumeric, err)
	}
	if lo > hi {
		return nil, ErrRangeDecreasing
	}
	if hi-lo >= MaxRange {
		return nil, fmt.Errorf("%w: %d values", ErrRangeTooLarge, hi-lo+1)
	}
	out := make([]string, 0, hi-lo+1)
	for n := lo; ; n++ {
		out = append(out, strconv.FormatUint(n, 10))
		if n == hi {
			break
		}
	}
	return out, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

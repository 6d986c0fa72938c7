/*
file: valkeygo/internal/params/params.go

Declarative command-parameter parsing (spec.md §4.2). The teacher has no
equivalent: every handler in internal/handlers hand-checks `len(args) != N`
and indexes argv positionally. This package replaces that pattern with a
schema walked by one shared algorithm, so each command declares its
parameters as data instead of imperative argv juggling.
*/
package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netanelrevah/valkeygo/internal/acl"
)

// Kind is which of spec.md §4.2's parameter kinds a Param is.
type Kind int

const (
	Positional Kind = iota
	Keyword         // literal token followed by one value
	Flag            // literal token, no value, toggles a bool
	MultiKeyword    // keyword collected repeatedly, each occurrence appends a value
)

// ValueType is the typed-scalar kind a Positional/Keyword/MultiKeyword
// parameter parses its value as.
type ValueType int

const (
	TString ValueType = iota
	TInt64
	TFloat64
	TBytes
	TEnum
)

// Param describes one declared parameter.
type Param struct {
	Name     string
	Kind     Kind
	Type     ValueType
	Token    string   // literal token for Keyword/Flag/MultiKeyword (case-insensitive match)
	Enum     []string // allowed values for TEnum (case-insensitive)
	Required bool     // Positional only; Keyword/Flag/MultiKeyword are always optional
	Default  any

	// KeyMode is non-zero when this parameter is a key argument, annotating
	// the read/write intent ACL key-pattern checks use.
	KeyMode acl.KeyMode
}

// Schema is a command's full declared parameter list, in original order.
type Schema []Param

// ErrWrongArgs/ErrSyntax/ErrNotInt/ErrNotFloat mirror spec.md §4.2's
// contract; callers format ErrWrongArgs with the command name themselves
// (it needs the literal command token, which this package doesn't know).
var (
	ErrWrongArgs = fmt.Errorf("wrong number of arguments")
	ErrSyntax    = fmt.Errorf("ERR syntax error")
	ErrNotInt    = fmt.Errorf("ERR value is not an integer or out of range")
	ErrNotFloat  = fmt.Errorf("ERR value is not a valid float")
)

// Result is the parsed parameter values, keyed by Param.Name.
type Result map[string]any

func (r Result) String(name string) string {
	v, _ := r[name].(string)
	return v
}
func (r Result) Bytes(name string) []byte {
	v, _ := r[name].([]byte)
	return v
}
func (r Result) Int64(name string) int64 {
	v, _ := r[name].(int64)
	return v
}
func (r Result) Float64(name string) float64 {
	v, _ := r[name].(float64)
	return v
}
func (r Result) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}
func (r Result) StringSlice(name string) []string {
	v, _ := r[name].([]string)
	return v
}
func (r Result) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Parse walks schema against argv following spec.md §4.2's algorithm:
// leading required positionals are consumed first; the remaining tokens are
// scanned left to right, matching any still-unconsumed keyword/flag/
// multi-keyword token at the current position, and treating anything else
// as the next optional positional. Leftover argv once every parameter slot
// is satisfied is a syntax error if any keyword parameter exists in the
// schema, else a wrong-arguments error.
func Parse(argv []string, schema Schema) (Result, error) {
	result := make(Result)
	consumed := make([]bool, len(schema))

	hasKeyword := false
	for _, p := range schema {
		if p.Kind == Keyword || p.Kind == Flag || p.Kind == MultiKeyword {
			hasKeyword = true
		}
		if p.Default != nil {
			result[p.Name] = p.Default
		}
	}

	i := 0
	// Leading required positionals, in declared order.
	for idx, p := range schema {
		if p.Kind != Positional || !p.Required {
			break
		}
		if i >= len(argv) {
			return nil, ErrWrongArgs
		}
		v, err := parseScalar(p, argv[i])
		if err != nil {
			return nil, err
		}
		result[p.Name] = v
		consumed[idx] = true
		i++
	}

	for i < len(argv) {
		tok := argv[i]
		matchedIdx := -1
		for idx, p := range schema {
			if consumed[idx] && p.Kind != MultiKeyword {
				continue
			}
			if (p.Kind == Keyword || p.Kind == Flag || p.Kind == MultiKeyword) && strings.EqualFold(p.Token, tok) {
				matchedIdx = idx
				break
			}
		}
		if matchedIdx >= 0 {
			p := schema[matchedIdx]
			switch p.Kind {
			case Flag:
				result[p.Name] = true
				consumed[matchedIdx] = true
				i++
			case Keyword:
				if i+1 >= len(argv) {
					return nil, ErrSyntax
				}
				v, err := parseScalar(p, argv[i+1])
				if err != nil {
					return nil, err
				}
				result[p.Name] = v
				consumed[matchedIdx] = true
				i += 2
			case MultiKeyword:
				if i+1 >= len(argv) {
					return nil, ErrSyntax
				}
				v, err := parseScalar(p, argv[i+1])
				if err != nil {
					return nil, err
				}
				existing, _ := result[p.Name].([]any)
				result[p.Name] = append(existing, v)
				consumed[matchedIdx] = true
				i += 2
			}
			continue
		}

		// Not a keyword token: try the next unconsumed optional positional.
		nextPositional := -1
		for idx, p := range schema {
			if p.Kind == Positional && !consumed[idx] {
				nextPositional = idx
				break
			}
		}
		if nextPositional < 0 {
			if hasKeyword {
				return nil, ErrSyntax
			}
			return nil, ErrWrongArgs
		}
		p := schema[nextPositional]
		v, err := parseScalar(p, tok)
		if err != nil {
			return nil, err
		}
		result[p.Name] = v
		consumed[nextPositional] = true
		i++
	}

	for idx, p := range schema {
		if p.Kind == Positional && p.Required && !consumed[idx] {
			return nil, ErrWrongArgs
		}
	}
	return result, nil
}

func parseScalar(p Param, tok string) (any, error) {
	switch p.Type {
	case TInt64:
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, ErrNotInt
		}
		return n, nil
	case TFloat64:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || f != f { // f != f catches NaN, which ParseFloat accepts as "nan"
			return nil, ErrNotFloat
		}
		return f, nil
	case TBytes:
		return []byte(tok), nil
	case TEnum:
		for _, e := range p.Enum {
			if strings.EqualFold(e, tok) {
				return e, nil
			}
		}
		return nil, ErrSyntax
	default:
		return tok, nil
	}
}

// ReadNumKeysList implements spec.md §4.2's "length-prefixed list" kind
// directly: argv[0] names the count of keys to follow. It checks that the
// count is positive and that at least that many arguments follow, then
// returns argv[1:] whole; a trailing clause (e.g. ZUNIONSTORE's WEIGHTS) is
// not split off here.
func ReadNumKeysList(argv []string) (numKeys int64, rest []string, err error) {
	if len(argv) == 0 {
		return 0, nil, ErrWrongArgs
	}
	n, err := strconv.ParseInt(argv[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("ERR numkeys should be greater than 0")
	}
	if n <= 0 {
		return 0, nil, fmt.Errorf("ERR numkeys should be greater than 0")
	}
	if int64(len(argv)-1) < n {
		return 0, nil, ErrSyntax
	}
	return n, argv[1:], nil
}

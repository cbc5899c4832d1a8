package instrument

import (
	"fmt"
	"strings"
	"unicode"
)

// ArgumentPath addresses a single emitted quantity. It is the structured form
// of the "namespace.variable" key shared between probes and meters.
//
// Stage is an optional filter: a subscription with a non-empty Stage only
// receives emissions made while the hub is in that stage. The textual form is
// "namespace.variable[stage]". Stage never participates in routing lookup,
// only in filtering at dispatch time.
type ArgumentPath struct {
	Namespace string
	Variable  string
	Stage     string
}

// ParseArgumentPath parses "namespace.variable" with an optional "[stage]"
// suffix. Exactly one dot separator is required.
func ParseArgumentPath(s string) (ArgumentPath, error) {
	raw := s
	stage := ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return ArgumentPath{}, fmt.Errorf("%w: %q has an unterminated stage filter", ErrMalformedArgumentPath, raw)
		}
		stage = strings.TrimSpace(s[i+1 : len(s)-1])
		if stage == "" {
			return ArgumentPath{}, fmt.Errorf("%w: %q has an empty stage filter", ErrMalformedArgumentPath, raw)
		}
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return ArgumentPath{}, fmt.Errorf("%w: %q must contain exactly one '.'", ErrMalformedArgumentPath, raw)
	}
	if !isIdentifier(parts[0]) {
		return ArgumentPath{}, fmt.Errorf("%w: namespace %q is not an identifier", ErrMalformedArgumentPath, parts[0])
	}
	if !isIdentifier(parts[1]) {
		return ArgumentPath{}, fmt.Errorf("%w: variable %q is not an identifier", ErrMalformedArgumentPath, parts[1])
	}

	return ArgumentPath{Namespace: parts[0], Variable: parts[1], Stage: stage}, nil
}

// MustParseArgumentPath is ParseArgumentPath for statically known paths.
// It panics on a malformed path.
func MustParseArgumentPath(s string) ArgumentPath {
	p, err := ParseArgumentPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the textual form of the path.
func (p ArgumentPath) String() string {
	if p.Stage != "" {
		return p.Namespace + "." + p.Variable + "[" + p.Stage + "]"
	}
	return p.Namespace + "." + p.Variable
}

// key is the routing key: namespace and variable only. Two paths that differ
// only in stage filter route to the same subscriber bucket.
func (p ArgumentPath) key() string {
	return p.Namespace + "." + p.Variable
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

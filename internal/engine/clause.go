package engine

import (
	"errors"
	"strings"
)

// ErrMalformedClause is returned by ParseClause when a predicate is not field==value.
var ErrMalformedClause = errors.New("malformed clause")

const (
	conjunction = "&&"
	equality    = "=="
)

// Predicate is one field==value test.
type Predicate struct {
	Field string
	Value string
}

// ParseClause splits a clause such as "country==US && plan==pro" into
// predicates. Both sides of each predicate are trimmed. A predicate without
// exactly one "==" or with an empty field makes the whole clause malformed.
// An empty value ("plan==") is allowed and matches an empty string.
func ParseClause(clause string) ([]Predicate, error) {
	parts := strings.Split(clause, conjunction)
	predicates := make([]Predicate, 0, len(parts))
	for _, part := range parts {
		sides := strings.Split(strings.TrimSpace(part), equality)
		if len(sides) != 2 {
			return nil, ErrMalformedClause
		}
		field := strings.TrimSpace(sides[0])
		if field == "" {
			return nil, ErrMalformedClause
		}
		predicates = append(predicates, Predicate{Field: field, Value: strings.TrimSpace(sides[1])})
	}
	return predicates, nil
}

// Matches reports whether every predicate holds for ctx. Values are compared
// as strings; a field missing from ctx never matches.
func Matches(predicates []Predicate, ctx Context) bool {
	for _, p := range predicates {
		got, ok := ctx.Lookup(p.Field)
		if !ok || got != p.Value {
			return false
		}
	}
	return true
}

// ClauseMatches parses clause and tests it against ctx.
// Malformed clauses never match.
func ClauseMatches(clause string, ctx Context) bool {
	predicates, err := ParseClause(clause)
	if err != nil {
		return false
	}
	return Matches(predicates, ctx)
}

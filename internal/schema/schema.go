// Package schema parses loosely structured LLM answers into values, trying a
// fixed sequence of increasingly permissive strategies.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnparseable = errors.New("answer could not be parsed")

type Kind int

const (
	Text Kind = iota
	Table
	Object
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Table:
		return "table"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FieldSchema describes the value expected for one field and how to recover
// it from raw model output.
type FieldSchema struct {
	Name       string
	Kind       Kind
	Columns    []string
	Strategies []Strategy
}

func NewTextSchema(name string) FieldSchema {
	return FieldSchema{Name: name, Kind: Text, Strategies: TextStrategies()}
}

func NewTableSchema(name string, columns ...string) FieldSchema {
	return FieldSchema{Name: name, Kind: Table, Columns: columns, Strategies: StructuredStrategies()}
}

func NewObjectSchema(name string) FieldSchema {
	return FieldSchema{Name: name, Kind: Object, Strategies: StructuredStrategies()}
}

// Lookup resolves the schema names questions may carry.
func Lookup(name string) (FieldSchema, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return NewTextSchema("text"), true
	case "table", "list":
		return NewTableSchema("table"), true
	case "object", "json":
		return NewObjectSchema("object"), true
	default:
		return FieldSchema{}, false
	}
}

// Validate checks a decoded value against the schema kind.
func (s FieldSchema) Validate(v any) error {
	switch s.Kind {
	case Table:
		switch v.(type) {
		case []any, map[string]any:
			return nil
		}
		return fmt.Errorf("%s: expected a list or object, got %T", s.Name, v)
	case Object:
		if _, ok := v.(map[string]any); ok {
			return nil
		}
		return fmt.Errorf("%s: expected an object, got %T", s.Name, v)
	default:
		if v == nil {
			return fmt.Errorf("%s: empty value", s.Name)
		}
		return nil
	}
}

// ParseError records why one strategy did not produce a value.
type ParseError struct {
	Strategy string
	Err      error
}

func (e ParseError) Error() string {
	return e.Strategy + ": " + e.Err.Error()
}

// ExhaustedError is returned when no strategy succeeded.
type ExhaustedError struct {
	Schema   string
	Attempts []ParseError
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("%s: %v (%s)", e.Schema, ErrUnparseable, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() error { return ErrUnparseable }

// Result carries the parsed value, the strategy that produced it and the
// failed attempts before it.
type Result struct {
	Value    any
	Strategy string
	Attempts []ParseError
}

// Parse runs the schema's strategies in order and returns the first value
// that passes validation. List values are deduplicated.
func Parse(raw string, s FieldSchema) (Result, error) {
	strategies := s.Strategies
	if len(strategies) == 0 {
		if s.Kind == Text {
			strategies = TextStrategies()
		} else {
			strategies = StructuredStrategies()
		}
	}
	var attempts []ParseError
	for _, st := range strategies {
		v, err := st.Apply(raw)
		if err == nil {
			err = s.Validate(v)
		}
		if err != nil {
			attempts = append(attempts, ParseError{Strategy: st.Name(), Err: err})
			continue
		}
		if list, ok := v.([]any); ok {
			v = Dedupe(list)
		}
		return Result{Value: v, Strategy: st.Name(), Attempts: attempts}, nil
	}
	return Result{Attempts: attempts}, &ExhaustedError{Schema: s.Name, Attempts: attempts}
}

package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Strategy turns raw model output into a decoded value or fails.
type Strategy interface {
	Name() string
	Apply(raw string) (any, error)
}

type strategyFunc struct {
	name string
	fn   func(string) (any, error)
}

func (s strategyFunc) Name() string                  { return s.name }
func (s strategyFunc) Apply(raw string) (any, error) { return s.fn(raw) }

const (
	StrictJSON     = "strict_json"
	StripFence     = "strip_fence"
	PythonLiteral  = "python_literal"
	CloseBrackets  = "close_brackets"
	BracketExtract = "bracket_extract"
	PlainText      = "plain_text"
)

func StructuredStrategies() []Strategy {
	return []Strategy{
		strategyFunc{StrictJSON, strictJSON},
		strategyFunc{StripFence, stripFence},
		strategyFunc{PythonLiteral, pythonLiteral},
		strategyFunc{CloseBrackets, closeBrackets},
		strategyFunc{BracketExtract, bracketExtract},
	}
}

// TextStrategies omits bracket_extract: prose citing "[3]" is still prose.
func TextStrategies() []Strategy {
	return []Strategy{
		strategyFunc{StrictJSON, strictJSON},
		strategyFunc{StripFence, stripFence},
		strategyFunc{PythonLiteral, pythonLiteral},
		strategyFunc{CloseBrackets, closeBrackets},
		strategyFunc{PlainText, plainText},
	}
}

var (
	errEmpty   = errors.New("empty input")
	errNoFence = errors.New("no code fence")
	errNoList  = errors.New("no bracketed list")
	fenceRe    = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")
	innerList  = regexp.MustCompile(`\[[^\[\]]*\]`)
)

func strictJSON(raw string) (any, error) {
	return decodeJSON(strings.TrimSpace(raw))
}

func stripFence(raw string) (any, error) {
	m := fenceRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, errNoFence
	}
	return decodeJSON(strings.TrimSpace(m[1]))
}

func pythonLiteral(raw string) (any, error) {
	js, err := pyToJSON(unfence(raw), false)
	if err != nil {
		return nil, err
	}
	return decodeJSON(js)
}

func closeBrackets(raw string) (any, error) {
	js, err := pyToJSON(unfence(raw), true)
	if err != nil {
		return nil, err
	}
	return decodeJSON(js)
}

// bracketExtract collects every innermost [...] group. A single group is the
// value itself; several groups become a list of lists.
func bracketExtract(raw string) (any, error) {
	groups := innerList.FindAllString(unfence(raw), -1)
	var out []any
	for _, g := range groups {
		js, err := pyToJSON(g, false)
		if err != nil {
			continue
		}
		v, err := decodeJSON(js)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	switch len(out) {
	case 0:
		return nil, errNoList
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

func plainText(raw string) (any, error) {
	s := strings.TrimSpace(unfence(raw))
	if s == "" {
		return nil, errEmpty
	}
	return s, nil
}

// unfence returns the body of the first code fence, or the trimmed input.
func unfence(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

func decodeJSON(s string) (any, error) {
	if s == "" {
		return nil, errEmpty
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after value")
	}
	return v, nil
}

// pyToJSON rewrites a Python literal (single quotes, tuples, None/True/False,
// trailing commas) as JSON. In lenient mode an unterminated string is closed
// and unclosed brackets are appended.
func pyToJSON(s string, lenient bool) (string, error) {
	var (
		out   bytes.Buffer
		stack []byte
	)
	closer := map[byte]byte{'[': ']', '(': ']', '{': '}'}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			str, n, closed := scanString(s[i:])
			if !closed && !lenient {
				return "", fmt.Errorf("unterminated string at offset %d", i)
			}
			b, _ := json.Marshal(str)
			out.Write(b)
			i += n
		case c == '[' || c == '(' || c == '{':
			stack = append(stack, closer[c])
			if c == '{' {
				out.WriteByte('{')
			} else {
				out.WriteByte('[')
			}
			i++
		case c == ']' || c == ')' || c == '}':
			want := byte('}')
			if c != '}' {
				want = ']'
			}
			if len(stack) == 0 || stack[len(stack)-1] != want {
				return "", fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
			trimTrailingComma(&out)
			out.WriteByte(want)
			i++
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "None":
				out.WriteString("null")
			case "True":
				out.WriteString("true")
			case "False":
				out.WriteString("false")
			default:
				out.WriteString(word)
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	if len(stack) > 0 {
		if !lenient {
			return "", fmt.Errorf("%d unclosed brackets", len(stack))
		}
		trimTrailingComma(&out)
		if b := bytes.TrimRight(out.Bytes(), " \t\r\n"); len(b) > 0 && b[len(b)-1] == ':' {
			out.WriteString("null")
		}
		for k := len(stack) - 1; k >= 0; k-- {
			out.WriteByte(stack[k])
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// scanString reads a quoted string starting at s[0] and returns its value,
// the bytes consumed and whether the closing quote was found.
func scanString(s string) (string, int, bool) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
		case c == quote:
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), len(s), false
}

func trimTrailingComma(out *bytes.Buffer) {
	b := bytes.TrimRight(out.Bytes(), " \t\r\n")
	if len(b) > 0 && b[len(b)-1] == ',' {
		out.Truncate(len(b) - 1)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

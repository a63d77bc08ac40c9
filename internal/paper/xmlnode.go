package paper

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is a minimal element tree. Publisher files mix prefix casing and
// default namespaces, so elements are addressed by lowercased local name only.
type node struct {
	name  string
	parts []part
}

// part is either character data or a child element.
type part struct {
	text  string
	child *node
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var root *node
	stack := make([]*node, 0, 16)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: strings.ToLower(t.Name.Local)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.parts = append(parent.parts, part{child: n})
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.parts = append(cur.parts, part{text: string(t)})
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decode xml: no root element")
	}
	return root, nil
}

// leadText is the character data before the first child element.
func (n *node) leadText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range n.parts {
		if p.child != nil {
			break
		}
		b.WriteString(p.text)
	}
	return b.String()
}

// ownText concatenates the element's direct character data, skipping children.
func (n *node) ownText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range n.parts {
		if p.child == nil {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// textContent is all character data below n in document order.
func (n *node) textContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *node) writeText(b *strings.Builder) {
	for _, p := range n.parts {
		if p.child != nil {
			p.child.writeText(b)
			continue
		}
		b.WriteString(p.text)
	}
}

func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, p := range n.parts {
		if p.child != nil && p.child.name == name {
			return p.child
		}
	}
	return nil
}

func (n *node) children(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, p := range n.parts {
		if p.child != nil && p.child.name == name {
			out = append(out, p.child)
		}
	}
	return out
}

// descendants returns elements below n (not n itself) whose name is in names,
// in document order.
func (n *node) descendants(names ...string) []*node {
	if n == nil {
		return nil
	}
	want := make(map[string]struct{}, len(names))
	for _, name := range names {
		want[name] = struct{}{}
	}
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, p := range cur.parts {
			if p.child == nil {
				continue
			}
			if _, ok := want[p.child.name]; ok {
				out = append(out, p.child)
			}
			walk(p.child)
		}
	}
	walk(n)
	return out
}

// find returns the first element named name at or below n.
func (n *node) find(name string) *node {
	if n == nil {
		return nil
	}
	if n.name == name {
		return n
	}
	for _, p := range n.parts {
		if p.child == nil {
			continue
		}
		if hit := p.child.find(name); hit != nil {
			return hit
		}
	}
	return nil
}

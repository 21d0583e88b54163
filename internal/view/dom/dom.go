// Package dom holds the display tree produced by the views and its HTML form.
package dom

import "strings"

type Attr struct {
	Key string
	Val string
}

// Node is an element, or a text node when Tag is empty.
type Node struct {
	Tag      string
	Class    []string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// El builds an element. class is space separated and may be empty; nil
// children are dropped so optional sections can be passed inline.
func El(tag, class string, children ...*Node) *Node {
	n := &Node{Tag: tag, Class: strings.Fields(class)}
	return n.Append(children...)
}

func Text(s string) *Node {
	return &Node{Text: s}
}

// Append adds the non-nil children to n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Set sets an attribute, replacing an earlier value for the same key.
func (n *Node) Set(key, val string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return n
}

func (n *Node) Get(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (n *Node) AddClass(class string, on bool) *Node {
	if on && !n.HasClass(class) {
		n.Class = append(n.Class, class)
	}
	return n
}

func (n *Node) HasClass(class string) bool {
	for _, c := range n.Class {
		if c == class {
			return true
		}
	}
	return false
}

func (n *Node) IsText() bool {
	return n.Tag == ""
}

// Walk visits n and its descendants depth first. The children of a node are
// skipped when fn returns false for it.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var found []*Node
	n.Walk(func(x *Node) bool {
		if match(x) {
			found = append(found, x)
		}
		return true
	})
	return found
}

// Find returns the first descendant (or n itself) matching tag and class.
// An empty class matches any element with the tag.
func (n *Node) Find(tag, class string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.Tag == tag && (class == "" || x.HasClass(class)) {
			found = x
			return false
		}
		return true
	})
	return found
}

func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(x *Node) bool {
		if x.IsText() {
			sb.WriteString(x.Text)
		}
		return true
	})
	return sb.String()
}

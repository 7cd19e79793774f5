// Package dom models the captured page as an immutable tree of element and
// text nodes and projects it into the integer-indexed selector map that the
// language model uses to refer to elements.
package dom

import "strings"

// Node is either an *ElementNode or a *TextNode.
type Node interface {
	node()
}

// Attribute is a single captured element attribute. Attributes are kept as a
// slice so display order matches capture order.
type Attribute struct {
	Name  string
	Value string
}

// ElementNode represents one DOM element at the time of capture. Trees are
// built fresh on every extraction and are read-only once built.
type ElementNode struct {
	Tag         string
	PathID      string
	Attributes  []Attribute
	Visible     bool
	Interactive bool
	InnerText   string
	TextContent string
	Children    []Node

	parent *ElementNode
}

func (n *ElementNode) node() {}

// Parent returns the parent element, or nil for the root. The back-reference
// is for traversal only; the tree owns its nodes top-down.
func (n *ElementNode) Parent() *ElementNode {
	return n.parent
}

// Attr returns the value of the named attribute and whether it was present.
func (n *ElementNode) Attr(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the element's id attribute, or "" if it has none.
func (n *ElementNode) ID() string {
	v, _ := n.Attr("id")
	return v
}

// Text returns the display text for the element, preferring innerText over
// raw textContent, trimmed.
func (n *ElementNode) Text() string {
	if t := strings.TrimSpace(n.InnerText); t != "" {
		return t
	}
	return strings.TrimSpace(n.TextContent)
}

// TextNode is a leaf holding non-empty trimmed text. Visibility is inherited
// from the parent element at capture time.
type TextNode struct {
	Text    string
	Visible bool

	parent *ElementNode
}

func (n *TextNode) node() {}

// Parent returns the element the text belongs to.
func (n *TextNode) Parent() *ElementNode {
	return n.parent
}

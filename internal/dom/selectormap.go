package dom

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// SelectorMap is the dense, zero-based index over the interactive elements of
// one captured tree, in document pre-order. It is rebuilt from scratch after
// every page mutation; indices never survive a rebuild.
type SelectorMap map[int]*ElementNode

const (
	maxAttrValueLen = 60
	maxTextLen      = 120
)

// Project flattens the tree depth-first, assigning the next index to every
// interactive element. Non-interactive elements are skipped but their
// subtrees are still descended.
func Project(root *ElementNode) SelectorMap {
	m := make(SelectorMap)
	if root == nil {
		return m
	}
	idx := 0
	var walk func(n *ElementNode)
	walk = func(n *ElementNode) {
		if n.Interactive {
			m[idx] = n
			idx++
		}
		for _, c := range n.Children {
			if el, ok := c.(*ElementNode); ok {
				walk(el)
			}
		}
	}
	walk(root)
	return m
}

// Render produces the element listing handed to the language model: one line
// per interactive element in document order, indented one tab per
// interactive ancestor so the model sees nesting as well as indices.
//
//	[0]<button id='go'>Go</button>
//	[1]<input type='text' placeholder='Email' />
func Render(root *ElementNode) string {
	var b strings.Builder
	idx := 0
	var walk func(n *ElementNode, depth int)
	walk = func(n *ElementNode, depth int) {
		childDepth := depth
		if n.Interactive {
			b.WriteString(strings.Repeat("\t", depth))
			fmt.Fprintf(&b, "[%d]<%s", idx, n.Tag)
			for _, a := range n.Attributes {
				fmt.Fprintf(&b, " %s='%s'", a.Name, clip(a.Value, maxAttrValueLen))
			}
			if text := clip(n.Text(), maxTextLen); text != "" {
				fmt.Fprintf(&b, ">%s</%s>", text, n.Tag)
			} else {
				b.WriteString(" />")
			}
			b.WriteString("\n")
			idx++
			childDepth = depth + 1
		}
		for _, c := range n.Children {
			if el, ok := c.(*ElementNode); ok {
				walk(el, childDepth)
			}
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

// String returns a plain per-index listing of the map, useful for logs and
// the CLI.
func (m SelectorMap) String() string {
	indices := make([]int, 0, len(m))
	for i := range m {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var lines []string
	for _, i := range indices {
		n := m[i]
		line := fmt.Sprintf("%d: tag=%s, path=%s", i, n.Tag, n.PathID)
		if len(n.Attributes) > 0 {
			var attrs []string
			for _, a := range n.Attributes {
				attrs = append(attrs, fmt.Sprintf("%s='%s'", a.Name, clip(a.Value, maxAttrValueLen)))
			}
			line += fmt.Sprintf(", attrs={ %s }", strings.Join(attrs, ", "))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// TreeString dumps the whole captured tree, text nodes included, for
// debugging and the CLI --tree view.
func TreeString(root *ElementNode) string {
	if root == nil {
		return ""
	}
	var lines []string
	dumpNode(root, "", &lines)
	return strings.Join(lines, "\n")
}

func dumpNode(n Node, indent string, lines *[]string) {
	switch v := n.(type) {
	case *TextNode:
		*lines = append(*lines, fmt.Sprintf("%s└── text %q (visible=%t)", indent, v.Text, v.Visible))
	case *ElementNode:
		*lines = append(*lines, fmt.Sprintf("%s<%s> path=%s visible=%t interactive=%t",
			indent, v.Tag, v.PathID, v.Visible, v.Interactive))
		for i, c := range v.Children {
			last := i == len(v.Children)-1
			if last {
				dumpNode(c, indent+"    ", lines)
			} else {
				dumpNode(c, indent+"│   ", lines)
			}
		}
	}
}

func clip(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so the cut never produces invalid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

package dom

import (
	"fmt"
	"strings"
)

// RootPrefix is the path prefix assigned to the capture root. Paths built
// from it ("//body[1]/div[1]/...") are valid XPath expressions, so the
// resolver can use a PathID directly as a structural selector.
const RootPrefix = "//"

// RawAttr is one attribute as emitted by the extraction script.
type RawAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawNode is the wire shape produced by the in-page extraction script: one
// entry per visible, in-viewport element, with inline text children carried
// as nodes named "#text".
type RawNode struct {
	NodeName      string     `json:"nodeName"`
	TextContent   string     `json:"textContent"`
	InnerText     string     `json:"innerText"`
	Attributes    []RawAttr  `json:"attributes"`
	Children      []*RawNode `json:"children"`
	IsVisible     bool       `json:"isVisible"`
	IsInteractive bool       `json:"isInteractive"`
}

// MalformedTreeError reports extraction output that is missing its required
// shape. A build that fails this way yields no usable tree at all.
type MalformedTreeError struct {
	Path string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed extraction tree at %q: element is missing a node name", e.Path)
}

// BuildTree converts raw extraction output into an ElementNode tree and
// assigns every element its PathID.
//
// PathIDs are synthesized with a per-(parent path, tag) running counter, so
// two siblings of the same tag get ".../input[1]" and ".../input[2]". For a
// fixed input the assignment is deterministic.
func BuildTree(raw *RawNode) (*ElementNode, error) {
	if raw == nil {
		return nil, &MalformedTreeError{Path: RootPrefix}
	}
	counts := make(map[string]int)
	return buildElement(raw, RootPrefix, nil, counts)
}

func buildElement(raw *RawNode, prefix string, parent *ElementNode, counts map[string]int) (*ElementNode, error) {
	tag := strings.ToLower(strings.TrimSpace(raw.NodeName))
	if tag == "" || tag == "#text" {
		return nil, &MalformedTreeError{Path: prefix}
	}

	key := prefix + tag
	counts[key]++
	pathID := fmt.Sprintf("%s%s[%d]", prefix, tag, counts[key])

	el := &ElementNode{
		Tag:         tag,
		PathID:      pathID,
		Visible:     raw.IsVisible,
		Interactive: raw.IsInteractive,
		InnerText:   raw.InnerText,
		TextContent: raw.TextContent,
		parent:      parent,
	}
	for _, a := range raw.Attributes {
		el.Attributes = append(el.Attributes, Attribute{Name: a.Name, Value: a.Value})
	}

	for _, child := range raw.Children {
		if child == nil {
			return nil, &MalformedTreeError{Path: pathID}
		}
		if child.NodeName == "#text" {
			// Whitespace-only text is dropped entirely.
			text := strings.TrimSpace(child.TextContent)
			if text != "" {
				el.Children = append(el.Children, &TextNode{Text: text, Visible: el.Visible, parent: el})
			}
			continue
		}
		sub, err := buildElement(child, pathID+"/", el, counts)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, sub)
	}

	return el, nil
}

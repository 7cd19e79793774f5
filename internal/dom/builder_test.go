package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawEl(tag string, interactive bool, kids ...*RawNode) *RawNode {
	return &RawNode{
		NodeName:      tag,
		IsVisible:     true,
		IsInteractive: interactive,
		Children:      kids,
	}
}

func rawText(s string) *RawNode {
	return &RawNode{NodeName: "#text", TextContent: s}
}

func withAttrs(n *RawNode, pairs ...string) *RawNode {
	for i := 0; i+1 < len(pairs); i += 2 {
		n.Attributes = append(n.Attributes, RawAttr{Name: pairs[i], Value: pairs[i+1]})
	}
	return n
}

func TestBuildTree_PathIDs(t *testing.T) {
	raw := rawEl("body", false,
		rawEl("div", false,
			rawEl("input", true),
			rawEl("input", true),
			rawEl("button", true),
		),
		rawEl("div", false),
	)

	root, err := BuildTree(raw)
	require.NoError(t, err)
	require.Equal(t, "//body[1]", root.PathID)

	div1 := root.Children[0].(*ElementNode)
	div2 := root.Children[1].(*ElementNode)
	require.Equal(t, "//body[1]/div[1]", div1.PathID)
	require.Equal(t, "//body[1]/div[2]", div2.PathID)

	// Same-tag siblings differ only in the final bracketed counter.
	in1 := div1.Children[0].(*ElementNode)
	in2 := div1.Children[1].(*ElementNode)
	btn := div1.Children[2].(*ElementNode)
	require.Equal(t, "//body[1]/div[1]/input[1]", in1.PathID)
	require.Equal(t, "//body[1]/div[1]/input[2]", in2.PathID)
	require.Equal(t, "//body[1]/div[1]/button[1]", btn.PathID)
}

func TestBuildTree_Deterministic(t *testing.T) {
	mk := func() *RawNode {
		return rawEl("body", false,
			rawEl("div", false,
				rawEl("a", true, rawText("home")),
				rawEl("a", true, rawText("about")),
			),
			rawEl("form", false,
				rawEl("input", true),
				rawEl("button", true, rawText("Send")),
			),
		)
	}

	collect := func(root *ElementNode) []string {
		var paths []string
		var walk func(n *ElementNode)
		walk = func(n *ElementNode) {
			paths = append(paths, n.PathID)
			for _, c := range n.Children {
				if el, ok := c.(*ElementNode); ok {
					walk(el)
				}
			}
		}
		walk(root)
		return paths
	}

	first, err := BuildTree(mk())
	require.NoError(t, err)
	second, err := BuildTree(mk())
	require.NoError(t, err)

	require.Equal(t, collect(first), collect(second))
	require.Equal(t, Render(first), Render(second))
}

func TestBuildTree_TextChildren(t *testing.T) {
	raw := rawEl("body", false,
		rawEl("span", false,
			rawText("  hello  "),
			rawText("   \n\t "),
		),
	)

	root, err := BuildTree(raw)
	require.NoError(t, err)

	span := root.Children[0].(*ElementNode)
	require.Len(t, span.Children, 1, "whitespace-only text must be dropped entirely")

	text := span.Children[0].(*TextNode)
	require.Equal(t, "hello", text.Text)
	require.True(t, text.Visible)
	require.Same(t, span, text.Parent())
}

func TestBuildTree_ParentBackrefs(t *testing.T) {
	raw := rawEl("body", false, rawEl("div", false, rawEl("button", true)))

	root, err := BuildTree(raw)
	require.NoError(t, err)
	require.Nil(t, root.Parent())

	div := root.Children[0].(*ElementNode)
	btn := div.Children[0].(*ElementNode)
	require.Same(t, root, div.Parent())
	require.Same(t, div, btn.Parent())
}

func TestBuildTree_Malformed(t *testing.T) {
	var malformed *MalformedTreeError

	_, err := BuildTree(nil)
	require.Error(t, err)
	require.True(t, errors.As(err, &malformed))

	_, err = BuildTree(&RawNode{NodeName: ""})
	require.Error(t, err)
	require.True(t, errors.As(err, &malformed))

	// A nested element missing its tag fails the whole build.
	raw := rawEl("body", false, rawEl("div", false, &RawNode{IsVisible: true}))
	_, err = BuildTree(raw)
	require.Error(t, err)
	require.True(t, errors.As(err, &malformed))
}

func TestBuildTree_Attributes(t *testing.T) {
	btn := withAttrs(rawEl("button", true), "id", "go", "class", "primary", "data-x", "1")
	raw := rawEl("body", false, btn)

	root, err := BuildTree(raw)
	require.NoError(t, err)

	el := root.Children[0].(*ElementNode)
	require.Equal(t, []Attribute{
		{Name: "id", Value: "go"},
		{Name: "class", Value: "primary"},
		{Name: "data-x", Value: "1"},
	}, el.Attributes, "capture order must be preserved")
	require.Equal(t, "go", el.ID())

	v, ok := el.Attr("class")
	require.True(t, ok)
	require.Equal(t, "primary", v)
	_, ok = el.Attr("href")
	require.False(t, ok)
}

// Page with <div><button id="go">Go</button><span>Go</span></div>: the button
// is the only indexed element, and the span's text stays under the span.
func TestBuildTree_ButtonSpanScenario(t *testing.T) {
	raw := rawEl("body", false,
		rawEl("div", false,
			withAttrs(rawEl("button", true, rawText("Go")), "id", "go"),
			rawEl("span", false, rawText("Go")),
		),
	)

	root, err := BuildTree(raw)
	require.NoError(t, err)

	div := root.Children[0].(*ElementNode)
	require.False(t, div.Interactive)
	require.True(t, div.Visible)

	btn := div.Children[0].(*ElementNode)
	span := div.Children[1].(*ElementNode)
	require.True(t, btn.Interactive)
	require.False(t, span.Interactive)

	btnText := btn.Children[0].(*TextNode)
	spanText := span.Children[0].(*TextNode)
	require.Equal(t, "Go", btnText.Text)
	require.Same(t, btn, btnText.Parent())
	require.Equal(t, "Go", spanText.Text)
	require.Same(t, span, spanText.Parent())

	m := Project(root)
	require.Len(t, m, 1)
	require.Same(t, btn, m[0])
}

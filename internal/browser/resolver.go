package browser

import (
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/Mushfiqur6087/Testing-Agent/internal/dom"
)

// Strategy names the selector strategy chosen for an interaction.
type Strategy string

const (
	// StrategyID locates by the element's id attribute.
	StrategyID Strategy = "id"
	// StrategyPath locates by the synthesized structural path.
	StrategyPath Strategy = "path"
)

// Ids outside this shape would need escaping in a CSS selector; those fall
// through to the structural path instead.
var safeCSSIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// chooseSelector picks the lookup strategy for a node: a stable id attribute
// when it has one, otherwise the structural path. First applicable wins and
// there is no further fallback after that.
func chooseSelector(node *dom.ElementNode) (Strategy, string) {
	if id := node.ID(); id != "" && safeCSSIdent.MatchString(id) {
		return StrategyID, "#" + id
	}
	return StrategyPath, node.PathID
}

// Locate resolves an index against the current selector map without acting
// on the element.
func (s *Session) Locate(index int) (*dom.ElementNode, error) {
	if s.state == stateClosed {
		return nil, &SessionClosedError{}
	}
	if _, err := s.CurrentPage(); err != nil {
		return nil, err
	}
	m, err := s.SelectorMap()
	if err != nil {
		return nil, err
	}
	node, ok := m[index]
	if !ok {
		return nil, &UnknownElementIndexError{Index: index, Size: len(m)}
	}
	return node, nil
}

// Click clicks the element at index. On success the page may have changed,
// so the cached tree and map are invalidated.
func (s *Session) Click(index int) error {
	node, err := s.Locate(index)
	if err != nil {
		return err
	}
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}

	strategy, selector := chooseSelector(node)
	el, err := s.find(page, strategy, selector)
	if err != nil {
		return &InteractionTimeoutError{Index: index, Strategy: strategy, Selector: selector, Err: err}
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &InteractionTimeoutError{Index: index, Strategy: strategy, Selector: selector, Err: err}
	}

	s.log.Info("clicked element",
		zap.Int("index", index),
		zap.String("strategy", string(strategy)),
		zap.String("selector", selector))
	s.waitIdle(page)
	s.invalidate()
	return nil
}

// Fill replaces the content of the element at index with text.
func (s *Session) Fill(index int, text string) error {
	node, err := s.Locate(index)
	if err != nil {
		return err
	}
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}

	strategy, selector := chooseSelector(node)
	el, err := s.find(page, strategy, selector)
	if err != nil {
		return &InteractionTimeoutError{Index: index, Strategy: strategy, Selector: selector, Err: err}
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return &InteractionTimeoutError{Index: index, Strategy: strategy, Selector: selector, Err: err}
	}

	s.log.Info("filled element",
		zap.Int("index", index),
		zap.String("strategy", string(strategy)),
		zap.String("selector", selector))
	s.invalidate()
	return nil
}

func (s *Session) find(page *rod.Page, strategy Strategy, selector string) (*rod.Element, error) {
	scoped := page.Timeout(s.opts.Timeout)
	if strategy == StrategyPath {
		return scoped.ElementX(selector)
	}
	return scoped.Element(selector)
}

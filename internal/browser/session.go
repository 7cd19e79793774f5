// Package browser owns the live browser session: tab lifecycle, the cached
// DOM tree / selector map for the current page, and index-based element
// interaction. All DOM captures are routed through this package so the cache
// can be invalidated whenever the page may have changed.
package browser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/Mushfiqur6087/Testing-Agent/internal/dom"
)

// Options configures a Session.
type Options struct {
	Headless   bool
	Timeout    time.Duration // element locate/interaction timeout
	IdleWait   time.Duration // quiet window for the post-action network idle wait
	Width      int
	Height     int
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Logger     *zap.Logger
}

const (
	defaultTimeout  = 5 * time.Second
	defaultIdleWait = 500 * time.Millisecond
)

// TabInfo describes one open tab.
type TabInfo struct {
	Index   int    `json:"index"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Current bool   `json:"current"`
}

// ExtractStats counts traversal work done by one extraction pass.
type ExtractStats struct {
	Total  int `json:"total"`
	Kept   int `json:"kept"`
	Pruned int `json:"pruned"`
}

type sessionState int

const (
	stateNoSession sessionState = iota
	stateActive
	stateClosed
)

// Session manages one browser with zero or more tabs and the single cached
// (tree, selector map) pair for the current tab. The browser is launched
// lazily on the first page request. A Session is not safe for concurrent
// use; one logical actor drives one session.
type Session struct {
	opts Options
	log  *zap.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	tabs     []*rod.Page
	current  int

	state      sessionState
	cacheValid bool
	tree       *dom.ElementNode
	selMap     dom.SelectorMap
	stats      ExtractStats

	// Overridable in tests to exercise the cache state machine without a
	// live browser.
	extractFn func(page *rod.Page) (*dom.RawNode, ExtractStats, error)
}

// NewSession creates a session. No browser is launched until a page is
// first requested.
func NewSession(opts Options) *Session {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.IdleWait == 0 {
		opts.IdleWait = defaultIdleWait
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{opts: opts, log: log, current: -1}
	s.extractFn = extractRaw
	return s
}

// CurrentPage returns the current tab, lazily launching the browser and
// opening the first tab if needed.
func (s *Session) CurrentPage() (*rod.Page, error) {
	if s.state == stateClosed {
		return nil, &SessionClosedError{}
	}
	if s.current >= 0 && s.current < len(s.tabs) {
		return s.tabs[s.current], nil
	}
	if err := s.ensureBrowser(); err != nil {
		return nil, &NoActivePageError{Err: err}
	}
	page, err := s.newTab("about:blank")
	if err != nil {
		return nil, &NoActivePageError{Err: err}
	}
	return page, nil
}

func (s *Session) ensureBrowser() error {
	if s.browser != nil {
		return nil
	}
	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(s.opts.Headless)
	if s.opts.ProfileDir != "" {
		l = l.UserDataDir(s.opts.ProfileDir)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}
	s.launcher = l
	s.browser = b
	s.state = stateActive
	s.log.Debug("browser session started", zap.Bool("headless", s.opts.Headless))
	return nil
}

func (s *Session) newTab(url string) (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if s.opts.Width > 0 && s.opts.Height > 0 {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.opts.Width,
			Height:            s.opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			s.log.Warn("set viewport failed", zap.Error(err))
		}
	}
	s.tabs = append(s.tabs, page)
	s.current = len(s.tabs) - 1
	return page, nil
}

// invalidate drops the cached tree and selector map. Every mutating
// operation funnels through here; the cache is never reused across a
// mutation.
func (s *Session) invalidate() {
	s.cacheValid = false
	s.tree = nil
	s.selMap = nil
}

// Navigate loads the URL in the current tab and invalidates the cache.
func (s *Session) Navigate(url string) error {
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		s.log.Warn("wait load after navigate failed", zap.Error(err))
	}
	s.waitIdle(page)
	s.invalidate()
	s.log.Info("navigated", zap.String("url", url))
	return nil
}

// Reload reloads the current tab.
func (s *Session) Reload() error {
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	if err := page.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		s.log.Warn("wait load after reload failed", zap.Error(err))
	}
	s.invalidate()
	return nil
}

// Back traverses one entry back in the tab's history.
func (s *Session) Back() error {
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	if err := page.NavigateBack(); err != nil {
		return fmt.Errorf("history back: %w", err)
	}
	s.invalidate()
	return nil
}

// Forward traverses one entry forward in the tab's history.
func (s *Session) Forward() error {
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	if err := page.NavigateForward(); err != nil {
		return fmt.Errorf("history forward: %w", err)
	}
	s.invalidate()
	return nil
}

// OpenTab opens a new tab, makes it current, and optionally navigates it.
func (s *Session) OpenTab(url string) (TabInfo, error) {
	if s.state == stateClosed {
		return TabInfo{}, &SessionClosedError{}
	}
	if err := s.ensureBrowser(); err != nil {
		return TabInfo{}, &NoActivePageError{Err: err}
	}
	if url == "" {
		url = "about:blank"
	}
	page, err := s.newTab(url)
	if err != nil {
		return TabInfo{}, &NoActivePageError{Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		s.log.Warn("wait load after open tab failed", zap.Error(err))
	}
	s.invalidate()
	return s.tabInfo(s.current), nil
}

// SwitchTab makes the tab at index current.
func (s *Session) SwitchTab(index int) error {
	if s.state == stateClosed {
		return &SessionClosedError{}
	}
	if index < 0 || index >= len(s.tabs) {
		return fmt.Errorf("tab index %d out of range (%d tabs)", index, len(s.tabs))
	}
	s.current = index
	if page := s.tabs[index]; page != nil {
		if _, err := page.Activate(); err != nil {
			s.log.Warn("activate tab failed", zap.Int("tab", index), zap.Error(err))
		}
	}
	s.invalidate()
	return nil
}

// CloseTab closes the tab at index. If it was current, the first remaining
// tab becomes current.
func (s *Session) CloseTab(index int) error {
	if s.state == stateClosed {
		return &SessionClosedError{}
	}
	if index < 0 || index >= len(s.tabs) {
		return fmt.Errorf("tab index %d out of range (%d tabs)", index, len(s.tabs))
	}
	page := s.tabs[index]
	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)
	switch {
	case len(s.tabs) == 0:
		s.current = -1
	case s.current == index:
		s.current = 0
	case s.current > index:
		s.current--
	}
	if page != nil {
		if err := page.Close(); err != nil {
			s.log.Warn("close tab failed", zap.Int("tab", index), zap.Error(err))
		}
	}
	s.invalidate()
	return nil
}

// Tabs enumerates open tabs. Per-tab info failures degrade to placeholders
// rather than failing the listing.
func (s *Session) Tabs() []TabInfo {
	infos := make([]TabInfo, 0, len(s.tabs))
	for i := range s.tabs {
		infos = append(infos, s.tabInfo(i))
	}
	return infos
}

func (s *Session) tabInfo(index int) TabInfo {
	info := TabInfo{Index: index, URL: "about:blank", Title: "Unknown", Current: index == s.current}
	if page := s.tabs[index]; page != nil {
		if ti, err := page.Info(); err == nil {
			info.URL = ti.URL
			info.Title = ti.Title
		}
	}
	return info
}

// ElementTree returns the captured tree for the current page, re-extracting
// if the cache is empty.
func (s *Session) ElementTree() (*dom.ElementNode, error) {
	if s.state == stateClosed {
		return nil, &SessionClosedError{}
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s.tree, nil
}

// SelectorMap returns the current index → element table. A failed extraction
// yields an empty map rather than an error; the next call re-extracts.
func (s *Session) SelectorMap() (dom.SelectorMap, error) {
	if s.state == stateClosed {
		return nil, &SessionClosedError{}
	}
	if err := s.refresh(); err != nil {
		s.log.Warn("extraction failed, returning empty selector map", zap.Error(err))
		return dom.SelectorMap{}, nil
	}
	return s.selMap, nil
}

// ElementList returns the LLM-facing rendering of the current interactive
// elements. Empty when extraction fails.
func (s *Session) ElementList() (string, error) {
	if s.state == stateClosed {
		return "", &SessionClosedError{}
	}
	if err := s.refresh(); err != nil {
		s.log.Warn("extraction failed, returning empty element list", zap.Error(err))
		return "", nil
	}
	return dom.Render(s.tree), nil
}

// TreeString returns the debug dump of the full captured tree.
func (s *Session) TreeString() (string, error) {
	tree, err := s.ElementTree()
	if err != nil {
		return "", err
	}
	return dom.TreeString(tree), nil
}

// Stats reports the traversal counters from the most recent extraction.
func (s *Session) Stats() ExtractStats {
	return s.stats
}

// refresh runs the Extractor → Builder → Projector pipeline if the cache is
// empty. On failure the cache stays empty so the next request retries.
func (s *Session) refresh() error {
	if s.cacheValid {
		return nil
	}
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	raw, stats, err := s.extractFn(page)
	if err != nil {
		s.invalidate()
		return fmt.Errorf("extract page model: %w", err)
	}
	tree, err := dom.BuildTree(raw)
	if err != nil {
		s.invalidate()
		return err
	}
	s.tree = tree
	s.selMap = dom.Project(tree)
	s.stats = stats
	s.cacheValid = true
	s.log.Debug("page model extracted",
		zap.Int("interactive", len(s.selMap)),
		zap.Int("nodes", stats.Kept),
		zap.Int("pruned", stats.Pruned))
	return nil
}

// waitIdle waits for the page's network to settle, capped so persistent
// connections cannot hang us.
func (s *Session) waitIdle(page *rod.Page) {
	page.Timeout(s.opts.Timeout).WaitRequestIdle(s.opts.IdleWait, nil, nil, nil)()
}

// Close tears the session down. Afterwards every operation fails fast with
// SessionClosedError.
func (s *Session) Close() error {
	if s.state == stateClosed {
		return &SessionClosedError{}
	}
	s.state = stateClosed
	s.invalidate()
	s.tabs = nil
	s.current = -1
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
	}
	return nil
}

type extractResult struct {
	Tree  *dom.RawNode `json:"tree"`
	Stats ExtractStats `json:"stats"`
}

// extractRaw runs the in-page extraction script and decodes its output.
func extractRaw(page *rod.Page) (*dom.RawNode, ExtractStats, error) {
	res, err := page.Eval(extractScript)
	if err != nil {
		return nil, ExtractStats{}, fmt.Errorf("eval extraction script: %w", err)
	}
	data, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, ExtractStats{}, fmt.Errorf("marshal extraction result: %w", err)
	}
	var out extractResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ExtractStats{}, fmt.Errorf("decode extraction result: %w", err)
	}
	return out.Tree, out.Stats, nil
}

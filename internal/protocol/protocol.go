// Package protocol decodes the constrained JSON the language model replies
// with: a current_state block plus an ordered action list, each action a
// single-key object naming one action kind. Decoding is strict about shape:
// an unknown action name or a missing required field fails the whole parse
// instead of being guessed around.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CurrentState is the model's own bookkeeping, passed back verbatim on the
// next step.
type CurrentState struct {
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`
	Memory                 string `json:"memory"`
	NextGoal               string `json:"next_goal"`
}

// Decision is one parsed model reply.
type Decision struct {
	CurrentState CurrentState
	Actions      []Action
}

// Action is a tagged union: exactly one kind field is non-nil.
type Action struct {
	ClickElement *ClickElement
	InputText    *InputText
	NavigateTo   *NavigateTo
	GoBack       *GoBack
	SwitchTab    *SwitchTab
	OpenTab      *OpenTab
	CloseTab     *CloseTab
	End          *End
}

type ClickElement struct {
	Index int `json:"index"`
}

type InputText struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type NavigateTo struct {
	URL string `json:"url"`
}

type GoBack struct{}

type SwitchTab struct {
	Index int `json:"index"`
}

type OpenTab struct {
	URL string `json:"url,omitempty"`
}

type CloseTab struct {
	Index int `json:"index"`
}

type End struct {
	Reason string `json:"reason"`
}

// Name returns the wire name of the action kind.
func (a Action) Name() string {
	switch {
	case a.ClickElement != nil:
		return "click_element"
	case a.InputText != nil:
		return "input_text"
	case a.NavigateTo != nil:
		return "navigate_to"
	case a.GoBack != nil:
		return "go_back"
	case a.SwitchTab != nil:
		return "switch_tab"
	case a.OpenTab != nil:
		return "open_tab"
	case a.CloseTab != nil:
		return "close_tab"
	case a.End != nil:
		return "end"
	}
	return "unknown"
}

// ElementIndex returns the selector-map index the action refers to, if any.
// The index is only meaningful against the map most recently produced for
// the current page state.
func (a Action) ElementIndex() (int, bool) {
	switch {
	case a.ClickElement != nil:
		return a.ClickElement.Index, true
	case a.InputText != nil:
		return a.InputText.Index, true
	}
	return 0, false
}

// Parse decodes a model reply. Surrounding prose and markdown code fences
// are tolerated; everything inside must be the decision JSON.
func Parse(text string) (*Decision, error) {
	cleaned := stripFences(text)

	var wire struct {
		CurrentState CurrentState                 `json:"current_state"`
		Action       []map[string]json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		// The model sometimes wraps the JSON in explanation text.
		extracted, ok := extractObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
		if err := json.Unmarshal([]byte(extracted), &wire); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
	}

	d := &Decision{CurrentState: wire.CurrentState}
	for i, item := range wire.Action {
		if len(item) != 1 {
			return nil, fmt.Errorf("action %d: expected exactly one action name, got %d", i, len(item))
		}
		for name, raw := range item {
			act, err := decodeAction(name, raw)
			if err != nil {
				return nil, fmt.Errorf("action %d (%s): %w", i, name, err)
			}
			d.Actions = append(d.Actions, act)
		}
	}
	return d, nil
}

func decodeAction(name string, raw json.RawMessage) (Action, error) {
	switch name {
	case "click_element":
		var aux struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return Action{}, err
		}
		if aux.Index == nil {
			return Action{}, fmt.Errorf("missing required field %q", "index")
		}
		return Action{ClickElement: &ClickElement{Index: *aux.Index}}, nil

	case "input_text":
		var aux struct {
			Index *int    `json:"index"`
			Text  *string `json:"text"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return Action{}, err
		}
		if aux.Index == nil {
			return Action{}, fmt.Errorf("missing required field %q", "index")
		}
		if aux.Text == nil {
			return Action{}, fmt.Errorf("missing required field %q", "text")
		}
		return Action{InputText: &InputText{Index: *aux.Index, Text: *aux.Text}}, nil

	case "navigate_to":
		var p NavigateTo
		if err := json.Unmarshal(raw, &p); err != nil {
			return Action{}, err
		}
		if p.URL == "" {
			return Action{}, fmt.Errorf("missing required field %q", "url")
		}
		return Action{NavigateTo: &p}, nil

	case "go_back":
		return Action{GoBack: &GoBack{}}, nil

	case "switch_tab":
		var aux struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return Action{}, err
		}
		if aux.Index == nil {
			return Action{}, fmt.Errorf("missing required field %q", "index")
		}
		return Action{SwitchTab: &SwitchTab{Index: *aux.Index}}, nil

	case "open_tab":
		var p OpenTab
		if err := json.Unmarshal(raw, &p); err != nil {
			return Action{}, err
		}
		return Action{OpenTab: &p}, nil

	case "close_tab":
		var aux struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return Action{}, err
		}
		if aux.Index == nil {
			return Action{}, fmt.Errorf("missing required field %q", "index")
		}
		return Action{CloseTab: &CloseTab{Index: *aux.Index}}, nil

	case "end":
		var p End
		if err := json.Unmarshal(raw, &p); err != nil {
			return Action{}, err
		}
		return Action{End: &p}, nil
	}
	return Action{}, fmt.Errorf("unknown action name")
}

// stripFences removes surrounding whitespace and a markdown code fence, with
// or without a language tag.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// extractObject pulls the outermost {...} out of surrounding prose.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

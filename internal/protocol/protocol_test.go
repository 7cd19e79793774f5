package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDecision = `{
	"current_state": {
		"evaluation_previous_goal": "Success - login form is visible",
		"memory": "0 of 3 fields filled",
		"next_goal": "Fill the login form and submit"
	},
	"action": [
		{"input_text": {"index": 1, "text": "test@example.com"}},
		{"input_text": {"index": 2, "text": "hunter2"}},
		{"click_element": {"index": 3}}
	]
}`

func TestParse_Plain(t *testing.T) {
	d, err := Parse(sampleDecision)
	require.NoError(t, err)

	require.Equal(t, "0 of 3 fields filled", d.CurrentState.Memory)
	require.Equal(t, "Fill the login form and submit", d.CurrentState.NextGoal)
	require.Len(t, d.Actions, 3)

	require.Equal(t, "input_text", d.Actions[0].Name())
	require.Equal(t, 1, d.Actions[0].InputText.Index)
	require.Equal(t, "test@example.com", d.Actions[0].InputText.Text)

	require.Equal(t, "click_element", d.Actions[2].Name())
	require.Equal(t, 3, d.Actions[2].ClickElement.Index)
}

func TestParse_CodeFences(t *testing.T) {
	for _, wrapped := range []string{
		"```json\n" + sampleDecision + "\n```",
		"```\n" + sampleDecision + "\n```",
		"\n\n  " + sampleDecision + "  \n",
	} {
		d, err := Parse(wrapped)
		require.NoError(t, err)
		require.Len(t, d.Actions, 3)
	}
}

func TestParse_SurroundingProse(t *testing.T) {
	text := "Here is my plan:\n" + sampleDecision + "\nLet me know how it goes."
	d, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, d.Actions, 3)
}

func TestParse_UnknownAction(t *testing.T) {
	_, err := Parse(`{"current_state": {}, "action": [{"teleport": {"index": 1}}]}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "teleport")
	require.Contains(t, err.Error(), "unknown action")
}

func TestParse_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`{"current_state": {}, "action": [{"click_element": {}}]}`,
		`{"current_state": {}, "action": [{"input_text": {"index": 1}}]}`,
		`{"current_state": {}, "action": [{"input_text": {"text": "x"}}]}`,
		`{"current_state": {}, "action": [{"navigate_to": {}}]}`,
		`{"current_state": {}, "action": [{"switch_tab": {}}]}`,
		`{"current_state": {}, "action": [{"close_tab": {}}]}`,
	}
	for _, c := range cases {
		_, err := Parse(c)
		require.Error(t, err, "input: %s", c)
		require.Contains(t, err.Error(), "missing required field")
	}
}

func TestParse_OneActionNamePerItem(t *testing.T) {
	_, err := Parse(`{"current_state": {}, "action": [{"go_back": {}, "end": {"reason": "done"}}]}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exactly one action name")
}

func TestParse_OptionalFields(t *testing.T) {
	d, err := Parse(`{"current_state": {}, "action": [
		{"open_tab": {}},
		{"open_tab": {"url": "https://example.com"}},
		{"go_back": {}},
		{"end": {"reason": "task complete"}}
	]}`)
	require.NoError(t, err)
	require.Len(t, d.Actions, 4)
	require.Equal(t, "", d.Actions[0].OpenTab.URL)
	require.Equal(t, "https://example.com", d.Actions[1].OpenTab.URL)
	require.Equal(t, "go_back", d.Actions[2].Name())
	require.Equal(t, "task complete", d.Actions[3].End.Reason)
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse("I clicked the button for you!")
	require.Error(t, err)
}

func TestAction_ElementIndex(t *testing.T) {
	click := Action{ClickElement: &ClickElement{Index: 7}}
	idx, ok := click.ElementIndex()
	require.True(t, ok)
	require.Equal(t, 7, idx)

	input := Action{InputText: &InputText{Index: 2, Text: "x"}}
	idx, ok = input.ElementIndex()
	require.True(t, ok)
	require.Equal(t, 2, idx)

	nav := Action{NavigateTo: &NavigateTo{URL: "https://example.com"}}
	_, ok = nav.ElementIndex()
	require.False(t, ok)
}

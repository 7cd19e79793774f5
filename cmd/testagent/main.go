package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mushfiqur6087/Testing-Agent/internal/agent"
	"github.com/Mushfiqur6087/Testing-Agent/internal/browser"
	"github.com/Mushfiqur6087/Testing-Agent/internal/dom"
	"github.com/Mushfiqur6087/Testing-Agent/internal/protocol"
)

var (
	provider   string
	model      string
	headless   bool
	timeout    time.Duration
	width      int
	height     int
	profile    string
	verbose    bool
	showTree   bool
	jsonOut    bool
	maxActions int
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "testagent",
		Short: "Inspect pages and plan browser-test actions with an LLM",
		Long: `testagent opens a page in a headless browser, extracts its interactive
elements into an indexed listing, and can ask a language model for the next
test actions in a constrained JSON protocol.

Examples:
  testagent elements "https://myapp.com"
  testagent plan "https://myapp.com" "log in with test@example.com and open settings"`,
	}

	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from env or claude)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Element interaction timeout")
	rootCmd.PersistentFlags().IntVar(&width, "width", 1280, "Viewport width")
	rootCmd.PersistentFlags().IntVar(&height, "height", 720, "Viewport height")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	elementsCmd := &cobra.Command{
		Use:   "elements <url>",
		Short: "Print the indexed interactive-element listing for a page",
		Args:  cobra.ExactArgs(1),
		RunE:  runElements,
	}
	elementsCmd.Flags().BoolVar(&showTree, "tree", false, "Also print the full captured element tree")
	elementsCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the selector map as JSON")

	planCmd := &cobra.Command{
		Use:   "plan <url> <task>",
		Short: "Ask the model for the next actions toward a task (one step, no execution)",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlan,
	}
	planCmd.Flags().IntVar(&maxActions, "max-actions", 10, "Maximum actions the model may propose per step")

	rootCmd.AddCommand(elementsCmd, planCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newSession(log *zap.Logger) *browser.Session {
	return browser.NewSession(browser.Options{
		Headless:   headless,
		Timeout:    timeout,
		Width:      width,
		Height:     height,
		ProfileDir: profile,
		Logger:     log,
	})
}

func runElements(cmd *cobra.Command, args []string) error {
	url := args[0]
	log := newLogger()
	defer func() { _ = log.Sync() }()

	session := newSession(log)
	defer session.Close()

	fmt.Printf("→ Opening %s... ", url)
	if err := session.Navigate(url); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("navigate failed: %w", err)
	}
	selMap, err := session.SelectorMap()
	if err != nil {
		fmt.Println("failed")
		return err
	}
	stats := session.Stats()
	fmt.Printf("done (%d interactive elements, %d nodes kept, %d pruned)\n\n",
		len(selMap), stats.Kept, stats.Pruned)

	if jsonOut {
		return printMapJSON(selMap)
	}

	listing, err := session.ElementList()
	if err != nil {
		return err
	}
	fmt.Println(listing)

	if showTree {
		tree, err := session.TreeString()
		if err != nil {
			return err
		}
		fmt.Println("\nElement tree:")
		fmt.Println(tree)
	}
	return nil
}

// mapEntry is the JSON shape for one selector-map row.
type mapEntry struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Path       string            `json:"path"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
}

func printMapJSON(selMap dom.SelectorMap) error {
	entries := make([]mapEntry, 0, len(selMap))
	for i := 0; i < len(selMap); i++ {
		n := selMap[i]
		e := mapEntry{Index: i, Tag: n.Tag, Path: n.PathID, Text: n.Text()}
		if len(n.Attributes) > 0 {
			e.Attributes = make(map[string]string, len(n.Attributes))
			for _, a := range n.Attributes {
				e.Attributes[a.Name] = a.Value
			}
		}
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	url := args[0]
	task := args[1]
	log := newLogger()
	defer func() { _ = log.Sync() }()

	selectedProvider := provider
	if selectedProvider == "" {
		selectedProvider = os.Getenv("TESTAGENT_DEFAULT_PROVIDER")
		if selectedProvider == "" {
			selectedProvider = "claude"
		}
	}

	aiProvider, err := agent.NewProvider(selectedProvider, model)
	if err != nil {
		return fmt.Errorf("AI provider init failed: %w", err)
	}

	session := newSession(log)
	defer session.Close()

	fmt.Printf("→ Opening %s... ", url)
	if err := session.Navigate(url); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("navigate failed: %w", err)
	}
	selMap, err := session.SelectorMap()
	if err != nil {
		fmt.Println("failed")
		return err
	}
	listing, err := session.ElementList()
	if err != nil {
		return err
	}
	fmt.Printf("done (%d interactive elements)\n", len(selMap))

	fmt.Printf("→ Asking %s for the next actions... ", selectedProvider)
	system := agent.SystemPrompt(maxActions)
	user := agent.StatePrompt(task, url, session.Tabs(), listing, "")
	reply, err := aiProvider.Complete(context.Background(), system, user)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("completion failed: %w", err)
	}

	decision, err := protocol.Parse(reply)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("failed to parse model reply: %w\nReply: %s", err, reply)
	}
	fmt.Printf("done (%d actions)\n\n", len(decision.Actions))

	fmt.Printf("Evaluation: %s\n", decision.CurrentState.EvaluationPreviousGoal)
	fmt.Printf("Memory:     %s\n", decision.CurrentState.Memory)
	fmt.Printf("Next goal:  %s\n\n", decision.CurrentState.NextGoal)

	for i, action := range decision.Actions {
		line := fmt.Sprintf("  [%d] %s", i+1, action.Name())
		if idx, ok := action.ElementIndex(); ok {
			if n, present := selMap[idx]; present {
				line += fmt.Sprintf(" → index %d (<%s> %s)", idx, n.Tag, n.PathID)
			} else {
				line += fmt.Sprintf(" → index %d (NOT in current selector map, stale)", idx)
			}
		}
		switch {
		case action.InputText != nil:
			line += fmt.Sprintf(" text=%q", action.InputText.Text)
		case action.NavigateTo != nil:
			line += " url=" + action.NavigateTo.URL
		case action.OpenTab != nil && action.OpenTab.URL != "":
			line += " url=" + action.OpenTab.URL
		case action.End != nil:
			line += " reason=" + action.End.Reason
		}
		fmt.Println(line)
	}
	return nil
}

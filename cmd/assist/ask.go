package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/internal/presentation/tui"
	"github.com/zweadfx/assist/pkg/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Long: `Runs one question through the engine and prints the answer.
Markdown rendering is applied when stdout is a terminal; plain text otherwise.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg)

		engine, err := buildEngine(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing assist: %v\n", err)
			os.Exit(1)
		}

		profile, err := parseProfile(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		conversationID, _ := cmd.Flags().GetString("conversation")

		env := engine.HandleRequest(context.Background(), assist.Request{
			ConversationID: conversationID,
			Question:       strings.Join(args, " "),
			Profile:        profile,
		})

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding response: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if !env.Success {
			fmt.Fprintf(os.Stderr, "Error: %s\n", env.Error.Message)
			os.Exit(1)
		}

		printAnswer(env)
	},
}

// printAnswer writes the answer to stdout, with glamour rendering and a
// provenance line when attached to a terminal.
func printAnswer(env *domain.Envelope) {
	text := env.Data.Text

	if term.IsTerminal(int(os.Stdout.Fd())) {
		render := tui.NewRenderer()
		if pretty, err := render(text); err == nil {
			text = pretty
		}
		fmt.Print(text)
		tui.PrintMeta(string(env.Meta.Intent), env.Meta.LoopCount, env.Meta.BestEffort)
		return
	}

	fmt.Println(text)
}

func parseProfile(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("profile")
	if raw == "" {
		return nil, nil
	}
	var profile map[string]any
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("invalid --profile JSON: %w", err)
	}
	return profile, nil
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("conversation", "c", "", "Conversation ID to continue")
	askCmd.Flags().String("profile", "", "User profile as a JSON object (e.g. '{\"skill_level\":\"beginner\"}')")
	askCmd.Flags().Bool("json", false, "Print the full response envelope as JSON")
}

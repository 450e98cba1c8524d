package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/internal/presentation/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts a read-eval loop against the engine. All turns share one
conversation, so follow-up questions keep their context. Type 'exit' or
'quit' to leave.`,
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

		tui.PrintBanner(assist.Version)

		var conversationID string
		reader := bufio.NewReader(os.Stdin)

		for {
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println()
				return
			}
			question := strings.TrimSpace(line)
			if question == "" {
				continue
			}
			if question == "exit" || question == "quit" {
				fmt.Println("Bye!")
				return
			}

			env := engine.HandleRequest(context.Background(), assist.Request{
				ConversationID: conversationID,
				Question:       question,
				Profile:        profile,
			})
			if !env.Success {
				fmt.Fprintf(os.Stderr, "Error: %s\n", env.Error.Message)
				continue
			}

			// Keep the conversation across turns.
			conversationID = env.Meta.ConversationID

			printAnswer(env)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("profile", "", "User profile as a JSON object (e.g. '{\"skill_level\":\"beginner\"}')")
}

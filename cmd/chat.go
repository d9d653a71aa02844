package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phoenixr49/hugbridge/internal/agent"
	"github.com/phoenixr49/hugbridge/internal/config"
	"github.com/phoenixr49/hugbridge/internal/log"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant interactively",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat drives the same turn-processing agent as the HTTP server from
// a terminal read loop. The conversation id returned by the first turn
// is reused for the rest of the session.
func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Warnings only; the turn loop reports its own errors as speech.
	logger := log.New(log.Config{Level: slog.LevelWarn})

	ag, err := buildAgent(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("initializing agent: %w", err)
	}

	fmt.Printf("hugbridge %s — chatting with %s\n", AppVersion, cfg.Model)
	fmt.Println("Type /new for a fresh conversation, /exit to quit, Ctrl+D to end.")
	fmt.Println()

	conversationID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit", "/quit":
			fmt.Println("Goodbye!")
			return nil
		case "/new":
			conversationID = ""
			fmt.Println("Starting a new conversation.")
			fmt.Println()
			continue
		}

		result := ag.ProcessTurn(ctx, agent.Input{
			ConversationID: conversationID,
			Text:           input,
		})
		conversationID = result.ConversationID

		fmt.Println(replyText(result))
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// replyText returns the line to print for a processed turn. Failed
// turns carry their speech-style message in the error info and leave
// Speech empty, so the message is what gets read back.
func replyText(result agent.Result) string {
	if !result.OK() {
		return result.Err.Message
	}
	return result.Speech
}

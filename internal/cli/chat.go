package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/paddle-arena/internal/api/request"
	"github.com/mcoot/paddle-arena/internal/api/response"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat between friends",
	}

	cmd.AddCommand(newChatSendCmd())
	cmd.AddCommand(newChatHistoryCmd())

	return cmd
}

func newChatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <sender-id> <recipient-id> <message...>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.SendChatRequest{
				SenderID:    args[0],
				RecipientID: args[1],
				Body:        strings.Join(args[2:], " "),
			}
			var result response.ChatMessage

			if err := client.Post("/api/v1/chat/messages", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newChatHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <player-id>",
		Short: "Show a player's recent chat messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ChatHistory

			path := fmt.Sprintf("/api/v1/players/%s/messages?limit=%d", args[0], limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if len(result.Messages) == 0 && cfg.Output != "json" {
				out.PrintMessage("No messages")
				return nil
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of messages")

	return cmd
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/paddle-arena/internal/api/request"
	"github.com/mcoot/paddle-arena/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "games",
		Aliases: []string{"game"},
		Short:   "Game session commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameDeleteCmd())
	cmd.AddCommand(newGameReadyCmd())
	cmd.AddCommand(newGameMoveCmd())
	cmd.AddCommand(newGameDisconnectCmd())
	cmd.AddCommand(newGameTimeoutCmd())

	return cmd
}

func gamePath(gameID string, suffix ...string) string {
	path := "/api/v1/games/" + gameID
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

func newGameCreateCmd() *cobra.Command {
	var gameID string

	cmd := &cobra.Command{
		Use:   "create <player-a> <player-b>",
		Short: "Create a game session between two players",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateGameRequest{
				GameID:  gameID,
				PlayerA: args[0],
				PlayerB: args[1],
			}
			var result response.Session

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&gameID, "id", "", "Game id (generated when omitted)")

	return cmd
}

func newGameListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live game sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SessionList

			if err := client.Get("/api/v1/games", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Get the current state of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Get(gamePath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id>",
		Short: "Stop and remove a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(gamePath(args[0])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game removed")
			return nil
		},
	}
}

func newGameReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <game-id> <player-id>",
		Short: "Mark a player as ready",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.PlayerRequest{PlayerID: args[1]}
			var result response.Session

			if err := client.Post(gamePath(args[0], "ready"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <game-id> <player-id> <up|down> <delta-seconds>",
		Short: "Send a paddle move",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid delta: %w", err)
			}

			req := request.MoveRequest{
				PlayerID:  args[1],
				Direction: strings.ToLower(args[2]),
				DeltaTime: &delta,
			}

			if err := client.Post(gamePath(args[0], "moves"), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Move accepted")
			return nil
		},
	}
}

func newGameDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <game-id> <player-id>",
		Short: "Report that a player has disconnected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.PlayerRequest{PlayerID: args[1]}

			if err := client.Post(gamePath(args[0], "disconnect"), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Disconnect reported")
			return nil
		},
	}
}

func newGameTimeoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeout",
		Short: "Control a game's ready timeout",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schedule <game-id>",
		Short: "Arm or re-arm the ready timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ReadyTimeout

			if err := client.Post(gamePath(args[0], "ready-timeout"), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <game-id>",
		Short: "Disarm the ready timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(gamePath(args[0], "ready-timeout")); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Ready timeout cancelled")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <game-id>",
		Short: "Show whether the ready timeout is armed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ReadyTimeout

			if err := client.Get(gamePath(args[0], "ready-timeout"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return cmd
}

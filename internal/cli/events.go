package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/paddle-arena/internal/api/response"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream SSE events from a game or player",
		Long: `Connect to an SSE endpoint and stream events in real-time.

Game streams carry session_created, player_ready, game_started, paddle_moved,
point_scored, state_tick, game_completed, game_aborted and session_removed.
Player streams carry chat_message events addressed to or sent by the player.

Press Ctrl+C to disconnect.`,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	cmd.AddCommand(&cobra.Command{
		Use:   "game <game-id>",
		Short: "Stream events for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents("/api/v1/games/"+args[0]+"/events", "game "+args[0], jsonOutput)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "player <player-id>",
		Short: "Stream chat events for a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents("/api/v1/players/"+args[0]+"/events", "player "+args[0], jsonOutput)
		},
	})

	return cmd
}

// sseFrame is one dispatched server-sent event
type sseFrame struct {
	Event string
	Data  string
}

func streamEvents(path, label string, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(cfg.ServerURL, "/")+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// Streams stay open indefinitely
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %w", label, decodeRequestError(resp.StatusCode, raw))
	}

	err = readSSE(resp.Body, func(frame sseFrame) {
		if jsonOutput {
			fmt.Println(frame.Data)
			return
		}
		fmt.Println(describeFrame(frame))
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Stream for %s closed\n", label)
	}
	return nil
}

// readSSE parses an event stream, calling emit for every complete event.
// Comment lines (keepalives) are skipped.
func readSSE(r io.Reader, emit func(sseFrame)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var frame sseFrame
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if frame.Event != "" || len(data) > 0 {
				frame.Data = strings.Join(data, "\n")
				emit(frame)
			}
			frame, data = sseFrame{}, nil
		case strings.HasPrefix(line, ":"):
			// keepalive
		case strings.HasPrefix(line, "event:"):
			frame.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	err := scanner.Err()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// describeFrame renders an event as a single human readable line
func describeFrame(frame sseFrame) string {
	var evt response.Event
	if err := json.Unmarshal([]byte(frame.Data), &evt); err != nil || evt.Type == "" {
		return fmt.Sprintf("%s: %s", frame.Event, frame.Data)
	}

	subject := evt.GameID
	if evt.PlayerID != "" {
		subject += " " + evt.PlayerID
	}
	subject = strings.TrimSpace(subject)

	line := fmt.Sprintf("[%s] %s", evt.Timestamp.Format("15:04:05.000"), evt.Type)
	if subject != "" {
		line += " " + subject
	}
	if evt.Data != nil {
		detail, _ := json.Marshal(evt.Data)
		if len(detail) > 120 {
			detail = append(detail[:120], "..."...)
		}
		line += " " + string(detail)
	}
	return line
}

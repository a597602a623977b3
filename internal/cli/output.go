package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mcoot/paddle-arena/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Session:
		o.printSession(v)
	case response.SessionList:
		o.printSessionList(v)
	case response.ReadyTimeout:
		o.printReadyTimeout(v)
	case response.ChatMessage:
		o.printChatMessage(v)
	case response.ChatHistory:
		for _, m := range v.Messages {
			o.printChatMessage(m)
		}
	case response.Health:
		fmt.Printf("Status: %s\n", v.Status)
		fmt.Printf("Live sessions: %d\n", v.LiveSessions)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSession(s response.Session) {
	fmt.Printf("Game: %s\n", s.ID)
	fmt.Printf("Phase: %s\n", s.Phase)
	if s.AbortReason != "" {
		fmt.Printf("Abort reason: %s\n", s.AbortReason)
	}
	o.printPaddle("Left", s.Left)
	o.printPaddle("Right", s.Right)
	fmt.Printf("Score: %d - %d\n", s.Score["left"], s.Score["right"])
	fmt.Printf("Ball: (%.1f, %.1f) velocity (%.1f, %.1f)\n", s.Ball.X, s.Ball.Y, s.Ball.VX, s.Ball.VY)
	if s.Winner != nil {
		fmt.Printf("Winner: %s\n", *s.Winner)
	}
}

func (o *Output) printPaddle(label string, p response.Paddle) {
	ready := ""
	if p.Ready {
		ready = " [ready]"
	}
	if !p.Connected {
		ready += " [disconnected]"
	}
	fmt.Printf("%s: %s at %.1f%s\n", label, p.PlayerID, p.Position, ready)
}

func (o *Output) printSessionList(l response.SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Println("No live games")
		return
	}
	for _, s := range l.Sessions {
		fmt.Printf("%s  %-18s %s vs %s  %d-%d\n",
			s.ID, s.Phase, s.Left.PlayerID, s.Right.PlayerID, s.Score["left"], s.Score["right"])
	}
}

func (o *Output) printReadyTimeout(t response.ReadyTimeout) {
	state := "not armed"
	if t.Pending {
		state = "armed"
	}
	fmt.Printf("Ready timeout for %s: %s\n", t.GameID, state)
}

func (o *Output) printChatMessage(m response.ChatMessage) {
	fmt.Printf("[%s] %s -> %s: %s\n", m.SentAt.Format("2006-01-02 15:04:05"), m.SenderID, m.RecipientID, m.Body)
}

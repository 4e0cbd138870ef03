package overlay

import (
	"fmt"
	"strconv"

	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/internal/match"
)

type Action string

const (
	ActionRestart Action = "restart"
	ActionQuit    Action = "quit"
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
)

type Anchor string

const (
	AnchorLeft     Anchor = "left"
	AnchorRight    Anchor = "right"
	AnchorTopRight Anchor = "top_right"
)

// Hint is an on-screen key reminder.
type Hint struct {
	Anchor Anchor   `json:"anchor"`
	Keys   []string `json:"keys"`
}

type Button struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
}

// Banner is the end-of-match dialog.
type Banner struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
}

// View is everything the host draws over the 3D scene.
type View struct {
	Score string `json:"score"`
	Hints []Hint `json:"hints"`
	// Countdown is empty when no countdown overlay is shown.
	Countdown string  `json:"countdown,omitempty"`
	Banner    *Banner `json:"banner,omitempty"`
	Pause     Button  `json:"pause"`
	Halted    string  `json:"halted,omitempty"`
}

var hints = []Hint{
	{Anchor: AnchorLeft, Keys: []string{"W", "S"}},
	{Anchor: AnchorRight, Keys: []string{"↑", "↓"}},
	{Anchor: AnchorTopRight, Keys: []string{"Esc"}},
}

// Render maps engine state to the overlay. It has no side effects.
func Render(s engine.Snapshot) View {
	v := View{
		Score: fmt.Sprintf("%d - %d", s.Score.Player1, s.Score.Player2),
		Hints: hints,
		Pause: Button{Label: "Pause", Action: ActionPause},
	}
	if s.Paused {
		v.Pause = Button{Label: "Resume", Action: ActionResume}
	}
	if s.Countdown > 0 {
		v.Countdown = strconv.Itoa(s.Countdown)
	}
	if s.Winner != match.NoSide {
		v.Banner = &Banner{
			Text: s.Winner.DisplayName() + " wins",
			Buttons: []Button{
				{Label: "Play again", Action: ActionRestart},
				{Label: "Quit", Action: ActionQuit},
			},
		}
	}
	if s.Phase == engine.PhaseHalted {
		v.Halted = s.Halted
	}
	return v
}

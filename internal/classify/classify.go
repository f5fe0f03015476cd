// Package classify maps a game's move evaluations to mistake events.
package classify

import (
	"github.com/blunderlab/api/internal/game"
)

// Severity grades a mistake. Ordering matters: Blunder outranks Mistake
// outranks Inaccuracy.
type Severity string

const (
	Inaccuracy Severity = "inaccuracy"
	Mistake    Severity = "mistake"
	Blunder    Severity = "blunder"
)

// Rank returns a comparable weight for a severity (higher = worse).
func (s Severity) Rank() int {
	switch s {
	case Blunder:
		return 3
	case Mistake:
		return 2
	case Inaccuracy:
		return 1
	}
	return 0
}

// Centipawn-loss thresholds. Behavioral constants; do not tune.
const (
	BlunderThreshold    = 250
	MistakeThreshold    = 150
	InaccuracyThreshold = 60
)

// MistakeEvent is one classified mistake. Immutable once created; produced
// only here and by the bootstrap engine.
type MistakeEvent struct {
	GameID       string    `json:"gameId"`
	Ply          int       `json:"ply"`
	MoveNumber   int       `json:"moveNumber"`
	Side         game.Side `json:"side"`
	Severity     Severity  `json:"severity"`
	CPLoss       int       `json:"cpLoss,omitempty"`
	Opening      string    `json:"opening,omitempty"`
	Bootstrapped bool      `json:"bootstrapped,omitempty"`
}

// SeverityForLoss maps a centipawn loss to a severity, or "" when the loss is
// below the inaccuracy threshold.
func SeverityForLoss(loss int) Severity {
	switch {
	case loss >= BlunderThreshold:
		return Blunder
	case loss >= MistakeThreshold:
		return Mistake
	case loss >= InaccuracyThreshold:
		return Inaccuracy
	}
	return ""
}

// severityForLabel maps a pre-computed judgment label to a severity.
// Labels outside the three grades (e.g. "good", "brilliant") produce no event.
func severityForLabel(label string) Severity {
	switch label {
	case "blunder":
		return Blunder
	case "mistake":
		return Mistake
	case "inaccuracy":
		return Inaccuracy
	}
	return ""
}

// Game classifies every annotated move of one game. If onlySide is non-empty,
// events for the other side are suppressed.
//
// Moves carrying a judgment label are trusted directly. Otherwise judgments
// are derived from consecutive raw evaluations, attributing the loss to the
// side that just moved: a neutral move must never be blamed for a swing caused
// by the opponent's reply. Pairs touching a mate distance are skipped, and the
// first ply has no predecessor so it is never classified.
func Game(g *game.GameRecord, onlySide game.Side) []MistakeEvent {
	var events []MistakeEvent

	emit := func(ply int, sev Severity, loss int) {
		side := game.SideForPly(ply)
		if onlySide != "" && side != onlySide {
			return
		}
		events = append(events, MistakeEvent{
			GameID:     g.ID,
			Ply:        ply,
			MoveNumber: game.MoveNumber(ply),
			Side:       side,
			Severity:   sev,
			CPLoss:     loss,
			Opening:    g.Opening,
		})
	}

	for i := range g.Moves {
		m := &g.Moves[i]
		if m.Judgment != "" {
			if sev := severityForLabel(m.Judgment); sev != "" {
				emit(m.Ply, sev, m.CPLoss)
			}
			continue
		}
		if !m.HasEval || i == 0 {
			continue
		}
		prev := &g.Moves[i-1]
		if prev.Ply != m.Ply-1 {
			continue
		}
		if !prev.HasEval || prev.Mate || m.Mate {
			continue
		}

		// Evals are from white's perspective; flip the delta for black.
		delta := m.EvalCP - prev.EvalCP
		loss := -delta
		if game.SideForPly(m.Ply) == game.Black {
			loss = delta
		}
		if loss < 0 {
			loss = 0
		}
		if sev := SeverityForLoss(loss); sev != "" {
			emit(m.Ply, sev, loss)
		}
	}

	return events
}

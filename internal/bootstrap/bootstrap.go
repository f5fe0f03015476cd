// Package bootstrap infers judgments for unevaluated games from evaluated
// games that reach the same position in the same opening.
package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/blunderlab/api/internal/classify"
	"github.com/blunderlab/api/internal/game"
)

// AggregatedJudgment is the index value for one position signature. When
// several events map to the same signature the most severe wins, ties broken
// by higher centipawn loss; Frequency counts how many events collapsed here.
type AggregatedJudgment struct {
	Severity   classify.Severity
	MoveNumber int
	Ply        int
	Opening    string
	CPLoss     int
	Frequency  int
}

// Engine propagates judgments for a single requested opening. It needs a
// global view of every game, so the orchestrator runs it on exactly one
// worker after the merge.
type Engine struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Run builds the signature index from the classified events of evaluated
// games and applies it to unevaluated games of the requested opening.
// Returned events are flagged bootstrapped and carry the inherited judgment.
func (e *Engine) Run(games []game.GameRecord, events []classify.MistakeEvent, opening string) []classify.MistakeEvent {
	index := e.buildIndex(games, events)
	if len(index) == 0 {
		return nil
	}

	var out []classify.MistakeEvent
	for i := range games {
		g := &games[i]
		if g.Evaluated() || g.Opening != opening || g.MoveText == "" {
			continue
		}
		sigs := ReplayPositions(g.MoveText)
		for ply := 1; ply < len(sigs); ply++ {
			agg, ok := index[sigs[ply]]
			if !ok {
				continue
			}
			// Signature equality already encodes side-to-move, but the
			// encoding is lossy; the parity check guards against collisions.
			if ply%2 != agg.Ply%2 {
				continue
			}
			if agg.Opening != g.Opening {
				continue
			}
			out = append(out, classify.MistakeEvent{
				GameID:       g.ID,
				Ply:          ply,
				MoveNumber:   game.MoveNumber(ply),
				Side:         game.SideForPly(ply),
				Severity:     agg.Severity,
				CPLoss:       agg.CPLoss,
				Opening:      g.Opening,
				Bootstrapped: true,
			})
		}
	}

	e.log.Info().
		Int("index_positions", len(index)).
		Int("inferred", len(out)).
		Str("opening", opening).
		Msg("bootstrap complete")
	return out
}

// buildIndex replays every evaluated game that produced events and maps the
// signature at each event's ply to its aggregated judgment.
func (e *Engine) buildIndex(games []game.GameRecord, events []classify.MistakeEvent) map[Signature]AggregatedJudgment {
	byGame := make(map[string][]classify.MistakeEvent)
	for _, ev := range events {
		if ev.Bootstrapped {
			continue
		}
		byGame[ev.GameID] = append(byGame[ev.GameID], ev)
	}

	index := make(map[Signature]AggregatedJudgment)
	for i := range games {
		g := &games[i]
		evs := byGame[g.ID]
		if len(evs) == 0 || !g.Evaluated() || g.MoveText == "" {
			continue
		}
		sigs := ReplayPositions(g.MoveText)
		for _, ev := range evs {
			if ev.Ply <= 0 || ev.Ply >= len(sigs) {
				continue
			}
			sig := sigs[ev.Ply]
			cur, ok := index[sig]
			if !ok {
				index[sig] = AggregatedJudgment{
					Severity:   ev.Severity,
					MoveNumber: ev.MoveNumber,
					Ply:        ev.Ply,
					Opening:    ev.Opening,
					CPLoss:     ev.CPLoss,
					Frequency:  1,
				}
				continue
			}
			cur.Frequency++
			if ev.Severity.Rank() > cur.Severity.Rank() ||
				(ev.Severity.Rank() == cur.Severity.Rank() && ev.CPLoss > cur.CPLoss) {
				cur.Severity = ev.Severity
				cur.MoveNumber = ev.MoveNumber
				cur.Ply = ev.Ply
				cur.Opening = ev.Opening
				cur.CPLoss = ev.CPLoss
			}
			index[sig] = cur
		}
	}
	return index
}

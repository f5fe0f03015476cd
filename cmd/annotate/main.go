// annotate evaluates every position of a PGN file with a UCI engine and
// writes game records with raw evaluations filled in, ready to upload to the
// analysis API. It is the annotation source the analyzer itself never runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/freeeve/pgn/v3"
	"github.com/freeeve/uci"

	"github.com/blunderlab/api/internal/game"
)

func main() {
	var (
		inputPath     = flag.String("input", "games.pgn", "input PGN file")
		outputPath    = flag.String("output", "games.json", "output JSON file")
		stockfishPath = flag.String("stockfish", os.Getenv("STOCKFISH_PATH"), "path to UCI engine executable")
		depth         = flag.Int("depth", 12, "engine search depth per position")
		threads       = flag.Int("threads", 4, "engine threads")
		hashMB        = flag.Int("hash", 256, "engine hash MB")
		maxGames      = flag.Int("max-games", 0, "stop after this many games (0 = all)")
	)
	flag.Parse()

	if *stockfishPath == "" {
		fmt.Fprintln(os.Stderr, "no engine: set -stockfish or STOCKFISH_PATH")
		os.Exit(1)
	}

	engine, err := uci.NewEngine(*stockfishPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := engine.SetOptions(uci.Options{
		Hash:    *hashMB,
		Threads: *threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "set engine options: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Annotating %s at depth %d...\n", *inputPath, *depth)

	var records []game.GameRecord
	parser := pgn.Games(*inputPath)
	gameNum := 0

	for g := range parser.Games {
		gameNum++
		if *maxGames > 0 && gameNum > *maxGames {
			parser.Stop()
			break
		}

		rec, err := annotateGame(engine, g, gameNum, *depth)
		if err != nil {
			fmt.Fprintf(os.Stderr, "game %d: %v\n", gameNum, err)
			continue
		}
		records = append(records, rec)
		fmt.Printf("game %d: %s (%d plies)\n", gameNum, rec.ID, len(rec.Moves))
	}
	if err := parser.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "parse PGN: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(map[string]any{"games": records}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d annotated games to %s\n", len(records), *outputPath)
}

// annotateGame replays one game, evaluating the position after every ply.
func annotateGame(engine *uci.Engine, g *pgn.Game, gameNum, depth int) (game.GameRecord, error) {
	rec := game.GameRecord{
		ID:      gameID(g, gameNum),
		Opening: openingName(g),
		White:   g.Tags["White"],
		Black:   g.Tags["Black"],
	}

	pos := pgn.NewStartingPosition()
	var sans []string

	for ply, mv := range g.Moves {
		san := mv.String()
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return rec, fmt.Errorf("apply move %d (%s): %w", ply+1, san, err)
		}
		sans = append(sans, san)

		m := game.AnalyzedMove{Ply: ply + 1}
		fen := pos.ToFEN()
		if err := engine.SetFEN(fen); err != nil {
			return rec, fmt.Errorf("set FEN: %w", err)
		}
		results, err := engine.GoDepth(depth, uci.HighestDepthOnly)
		if err != nil {
			return rec, fmt.Errorf("engine eval: %w", err)
		}
		if len(results.Results) == 0 {
			return rec, fmt.Errorf("no engine results at ply %d", ply+1)
		}
		best := results.Results[0]
		for _, r := range results.Results {
			if r.Depth > best.Depth {
				best = r
			}
		}

		// Engine scores are from the side to move; normalize to white.
		score := best.Score
		if strings.Contains(fen, " b ") {
			score = -score
		}
		if best.Mate {
			m.Mate = true
			m.MateIn = score
		} else {
			m.HasEval = true
			m.EvalCP = score
		}
		rec.Moves = append(rec.Moves, m)
	}

	rec.MoveText = strings.Join(sans, " ")
	return rec, nil
}

func gameID(g *pgn.Game, gameNum int) string {
	for _, tag := range []string{"GameId", "Site", "Event"} {
		if v := g.Tags[tag]; v != "" && v != "?" {
			return v
		}
	}
	return fmt.Sprintf("game-%d", gameNum)
}

func openingName(g *pgn.Game) string {
	if v := g.Tags["Opening"]; v != "" && v != "?" {
		return v
	}
	return g.Tags["ECO"]
}

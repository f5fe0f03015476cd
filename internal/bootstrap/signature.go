package bootstrap

import (
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Signature is a normalized position key: piece placement and side-to-move
// only. Castling rights, en-passant targets, and move clocks are deliberately
// dropped so transpositions differing only in that state still match. This
// over-approximation is a precision/recall trade-off; keep it.
type Signature string

// SignatureOf derives the signature from a board state via its FEN.
func SignatureOf(pos *pgn.GameState) Signature {
	fen := pos.ToFEN()
	fields := strings.SplitN(fen, " ", 3)
	if len(fields) < 2 {
		return Signature(fen)
	}
	return Signature(fields[0] + " " + fields[1])
}

var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// ReplayPositions replays SAN move text from the starting position and
// returns the per-ply signatures: sigs[p] is the position after ply p, with
// sigs[0] the starting position. A token that fails to parse or apply stops
// the replay; the prefix computed so far is returned, so one malformed game
// degrades to partial (or just starting-position) coverage instead of
// failing the run.
func ReplayPositions(moveText string) []Signature {
	pos := pgn.NewStartingPosition()
	sigs := []Signature{SignatureOf(pos)}

	cleaned := moveNumberRegex.ReplaceAllString(moveText, "")
	for _, san := range strings.Fields(cleaned) {
		if san == "" || san[0] == '$' || san[0] == '{' {
			continue
		}
		if san == "1-0" || san == "0-1" || san == "1/2-1/2" || san == "*" {
			break
		}
		san = strings.TrimSuffix(san, "+")
		san = strings.TrimSuffix(san, "#")

		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			break
		}
		if err := pgn.ApplyMove(pos, mv); err != nil {
			break
		}
		sigs = append(sigs, SignatureOf(pos))
	}
	return sigs
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/blunderlab/api/internal/game"
)

// ComputeKey derives the content address for a dataset + options pair.
// The dataset is canonicalized as (gameId, opening, evaluatedMoveCount)
// tuples sorted by gameId, so the key is invariant under permutation of the
// input list; any change to a game id, opening, annotation coverage, or
// option value produces a different key.
func ComputeKey(games []game.GameRecord, onlyForUsername, bootstrapOpening string) string {
	type tuple struct {
		id      string
		opening string
		count   int
	}
	tuples := make([]tuple, 0, len(games))
	for i := range games {
		g := &games[i]
		tuples = append(tuples, tuple{g.ID, g.Opening, g.EvaluatedMoveCount()})
	}
	sort.Slice(tuples, func(i, j int) bool { return tuples[i].id < tuples[j].id })

	h := sha256.New()
	for _, t := range tuples {
		fmt.Fprintf(h, "%s\x1f%s\x1f%d\x1e", t.id, t.opening, t.count)
	}
	fmt.Fprintf(h, "opts\x1f%s\x1f%s", onlyForUsername, bootstrapOpening)
	return hex.EncodeToString(h.Sum(nil))
}

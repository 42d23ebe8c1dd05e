package engine

// Score bounds shared with the search.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// Scores at or beyond these thresholds encode a forced mate and carry a
	// distance that depends on the ply they were found at.
	MateInMaxPly  = MateScore - MaxPly
	MatedInMaxPly = -MateInMaxPly
)

// MateIn returns the score for delivering mate ply half-moves from the root.
func MateIn(ply int) int {
	return MateScore - ply
}

// MatedIn returns the score for being mated ply half-moves from the root.
func MatedIn(ply int) int {
	return -MateScore + ply
}

// ScoreToTT converts a root-relative score into a score relative to the node
// at ply, for storage in the transposition table.
func ScoreToTT(score, ply int) int {
	if score >= MateInMaxPly {
		return score + ply
	}
	if score <= MatedInMaxPly {
		return score - ply
	}
	return score
}

// ScoreFromTT converts a stored score back to be relative to the root, for a
// node at ply.
func ScoreFromTT(score, ply int) int {
	if score >= MateInMaxPly {
		return score - ply
	}
	if score <= MatedInMaxPly {
		return score + ply
	}
	return score
}

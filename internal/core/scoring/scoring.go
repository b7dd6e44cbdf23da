// Package scoring turns vote counts into a bounded spam score.
// Scores are always derived from a full ledger count, never adjusted in place
package scoring

const (
	// MaxScore is the ceiling of every score
	MaxScore = 100
	// DefaultThreshold is the vote count at which a number scores MaxScore
	DefaultThreshold = 50
	// DefaultCutoff is the score at or above which a number is spam
	DefaultCutoff = 80
	// DefaultBlockNudge is the score bump a block-with-report adds
	DefaultBlockNudge = 5
)

// Policy holds the tunables. The zero value uses the defaults
type Policy struct {
	Threshold  int
	Cutoff     int
	BlockNudge int
}

// Default returns the stock policy
func Default() Policy {
	return Policy{Threshold: DefaultThreshold, Cutoff: DefaultCutoff, BlockNudge: DefaultBlockNudge}
}

func (p Policy) threshold() int {
	if p.Threshold <= 0 {
		return DefaultThreshold
	}
	return p.Threshold
}

func (p Policy) cutoff() int {
	if p.Cutoff <= 0 {
		return DefaultCutoff
	}
	return p.Cutoff
}

func (p Policy) nudge() int {
	if p.BlockNudge <= 0 {
		return DefaultBlockNudge
	}
	return p.BlockNudge
}

// Score maps a vote count to 0..MaxScore: MaxScore at or past the threshold,
// otherwise floor(votes*100/threshold). Negative counts score 0
func (p Policy) Score(votes int) int {
	t := p.threshold()
	switch {
	case votes <= 0:
		return 0
	case votes >= t:
		return MaxScore
	}
	return votes * MaxScore / t
}

// IsSpam reports whether a score crosses the spam cutoff
func (p Policy) IsSpam(score int) bool { return score >= p.cutoff() }

// SpamSignal reports whether a number should resolve as spam from either its vote count or its score
func (p Policy) SpamSignal(votes, score int) bool {
	return votes >= p.threshold() || p.IsSpam(score)
}

// Effective combines the ledger score with a curated override and any accumulated
// block bonus. A curated score higher than the computed one wins
func (p Policy) Effective(votes, bonus int, manual *int) int {
	s := Clamp(p.Score(votes) + max(bonus, 0))
	if manual != nil && *manual > s {
		s = Clamp(*manual)
	}
	return s
}

// Nudge adds the block increment to a running bonus. The bonus never pushes the
// ledger score past MaxScore
func (p Policy) Nudge(votes, bonus int) int {
	room := MaxScore - p.Score(votes)
	return min(max(bonus, 0)+p.nudge(), max(room, 0))
}

// Clamp bounds s to 0..MaxScore
func Clamp(s int) int {
	return min(max(s, 0), MaxScore)
}

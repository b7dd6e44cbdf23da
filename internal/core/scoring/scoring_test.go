package scoring

import "testing"

func TestScore_Table(t *testing.T) {
	p := Default()
	tests := []struct {
		votes int
		want  int
	}{
		{-3, 0},
		{0, 0},
		{1, 2},
		{5, 10},
		{39, 78},
		{40, 80},
		{49, 98},
		{50, 100},
		{60, 100},
	}
	for _, tc := range tests {
		if got := p.Score(tc.votes); got != tc.want {
			t.Fatalf("Score(%d) = %d, want %d", tc.votes, got, tc.want)
		}
	}
}

func TestScore_MonotonicAndBounded(t *testing.T) {
	for _, th := range []int{1, 3, 7, 50, 101} {
		p := Policy{Threshold: th}
		prev := 0
		for v := 0; v <= th*2; v++ {
			s := p.Score(v)
			if s < prev {
				t.Fatalf("threshold %d: Score(%d)=%d < Score(%d)=%d", th, v, s, v-1, prev)
			}
			if s < 0 || s > MaxScore {
				t.Fatalf("threshold %d: Score(%d)=%d out of range", th, v, s)
			}
			if (s == MaxScore) != (v >= th) {
				t.Fatalf("threshold %d: Score(%d)=%d, max iff votes>=threshold", th, v, s)
			}
			prev = s
		}
	}
}

func TestZeroPolicyUsesDefaults(t *testing.T) {
	var p Policy
	if p.Score(25) != 50 {
		t.Fatalf("zero policy threshold not defaulted")
	}
	if !p.IsSpam(80) || p.IsSpam(79) {
		t.Fatalf("zero policy cutoff not defaulted")
	}
}

func TestSpamSignal(t *testing.T) {
	p := Default()
	tests := []struct {
		votes, score int
		want         bool
	}{
		{0, 0, false},
		{5, 10, false},
		{50, 100, true},
		{60, 100, true},
		{1, 85, true},
		{49, 79, false},
	}
	for _, tc := range tests {
		if got := p.SpamSignal(tc.votes, tc.score); got != tc.want {
			t.Fatalf("SpamSignal(%d,%d) = %v, want %v", tc.votes, tc.score, got, tc.want)
		}
	}
}

func TestEffective(t *testing.T) {
	p := Default()
	curated := 90
	low := 4
	if got := p.Effective(5, 0, &curated); got != 90 {
		t.Fatalf("curated higher should win, got %d", got)
	}
	if got := p.Effective(5, 0, &low); got != 10 {
		t.Fatalf("curated lower should lose, got %d", got)
	}
	if got := p.Effective(5, 5, nil); got != 15 {
		t.Fatalf("bonus not applied, got %d", got)
	}
	if got := p.Effective(50, 5, nil); got != 100 {
		t.Fatalf("effective not clamped, got %d", got)
	}
}

func TestNudge(t *testing.T) {
	p := Default()
	if got := p.Nudge(0, 0); got != 5 {
		t.Fatalf("Nudge(0,0) = %d", got)
	}
	if got := p.Nudge(0, 5); got != 10 {
		t.Fatalf("Nudge(0,5) = %d", got)
	}
	if got := p.Nudge(48, 0); got != 4 {
		t.Fatalf("Nudge near cap = %d, want 4", got)
	}
	if got := p.Nudge(60, 3); got != 0 {
		t.Fatalf("Nudge at cap = %d, want 0", got)
	}
}

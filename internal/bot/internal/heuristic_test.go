package internal

import (
	"errors"
	"reflect"
	"testing"

	"game2048/internal/domain"
)

func TestParseHeuristic(t *testing.T) {
	for _, h := range Heuristics() {
		got, err := ParseHeuristic(h.Name())
		if err != nil || got != h {
			t.Fatalf("ParseHeuristic(%q) = %v, %v", h.Name(), got, err)
		}
	}
	if _, err := ParseHeuristic("corners"); !errors.Is(err, ErrUnknownHeuristic) {
		t.Fatalf("err = %v, want ErrUnknownHeuristic", err)
	}
}

func TestCombinedTuningScore(t *testing.T) {
	b := domain.Board{{2}}
	tuning := DefaultCombinedTuning()
	// empty 15*1.0 + corner 8*5.0 + monotonicity 0 + smoothness 0 + remove_small -1*0.5
	if got := tuning.Score(b); !near(got, 54.5) {
		t.Fatalf("Score() = %v, want 54.5", got)
	}

	off := tuning.Toggle(HeuristicCorner)
	if got := off.Score(b); !near(got, 14.5) {
		t.Fatalf("Score() without corner = %v, want 14.5", got)
	}
	if got := tuning.Score(b); !near(got, 54.5) {
		t.Fatalf("Toggle modified the receiver, Score() = %v", got)
	}
}

func TestCombinedTuningToggleOrder(t *testing.T) {
	tuning := DefaultCombinedTuning().Toggle(HeuristicCorner)
	wantOff := []Heuristic{HeuristicEmpty, HeuristicMonotonicity, HeuristicSmoothness, HeuristicRemoveSmall}
	if !reflect.DeepEqual(tuning.Order, wantOff) {
		t.Fatalf("Order after off = %v, want %v", tuning.Order, wantOff)
	}
	if tuning.Settings[HeuristicCorner].Active {
		t.Fatalf("corner should be inactive")
	}

	tuning = tuning.Toggle(HeuristicCorner)
	wantOn := append(append([]Heuristic(nil), wantOff...), HeuristicCorner)
	if !reflect.DeepEqual(tuning.Order, wantOn) {
		t.Fatalf("Order after on = %v, want %v", tuning.Order, wantOn)
	}
	if !reflect.DeepEqual(tuning.ActiveOrder(), wantOn) {
		t.Fatalf("ActiveOrder() = %v", tuning.ActiveOrder())
	}
}

func TestCombinedTuningInactiveInOrder(t *testing.T) {
	tuning := DefaultCombinedTuning()
	tuning.Settings[HeuristicEmpty].Active = false
	b := domain.Board{{2}}
	if got := tuning.Score(b); !near(got, 39.5) {
		t.Fatalf("Score() = %v, want 39.5", got)
	}
	if len(tuning.ActiveOrder()) != 4 {
		t.Fatalf("ActiveOrder() = %v", tuning.ActiveOrder())
	}
}

func TestCombinedScoreAddsHalfDelta(t *testing.T) {
	tuning := DefaultCombinedTuning()
	res := domain.ApplyMove(domain.Board{{2, 2}}, domain.Left)
	want := tuning.Score(res.Board) + 2
	if got := CombinedScore(tuning)(res); !near(got, want) {
		t.Fatalf("CombinedScore() = %v, want %v", got, want)
	}
}

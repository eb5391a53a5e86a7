package domain

import "testing"

func TestSessionPhase(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  Phase
	}{
		{name: "empty cells", board: Board{{2, 4}}, want: PhasePlaying},
		{name: "merge available", board: Board{{2, 2, 4, 8}, {4, 8, 16, 32}, {8, 16, 32, 64}, {16, 32, 64, 128}}, want: PhasePlaying},
		{name: "stuck", board: Board{{2, 4, 2, 4}, {4, 2, 4, 2}, {2, 4, 2, 4}, {4, 2, 4, 2}}, want: PhaseEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{State: NewGameState(tt.board, 0)}
			if got := s.Phase(); got != tt.want {
				t.Fatalf("Phase() = %s, want %s", got, tt.want)
			}
		})
	}
}

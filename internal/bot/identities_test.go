package bot

import (
	"strings"
	"testing"
)

func TestDefaultProfiles_CoverEveryAlgorithm(t *testing.T) {
	seen := map[Algorithm]bool{}
	for _, p := range DefaultProfiles() {
		if err := p.Config.Validate(); err != nil {
			t.Fatalf("profile %s invalid: %v", p.ID, err)
		}
		seen[p.Config.Algorithm] = true
	}
	for _, a := range Algorithms() {
		if !seen[a] {
			t.Errorf("no default profile uses %s", a)
		}
	}
}

func TestParseProfiles(t *testing.T) {
	data := []byte(`[
		{"id":"fast","display_name":"Fast MCTS","config":{"algorithm":"mcts","mcts_iterations":100}},
		{"id":"plain"}
	]`)
	list, err := ParseProfiles(data)
	if err != nil {
		t.Fatalf("ParseProfiles: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].Config.Algorithm != AlgorithmMCTS || list[0].Config.MCTSIterations != 100 || list[0].Config.MCTSRolloutDepth != DefaultMCTSRolloutDepth {
		t.Fatalf("fast = %+v", list[0].Config)
	}
	if list[1].DisplayName != "plain" || list[1].Config.Algorithm != AlgorithmHeuristic {
		t.Fatalf("plain = %+v", list[1])
	}
}

func TestParseProfiles_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "not json", data: `{`, want: "unmarshal"},
		{name: "missing id", data: `[{"display_name":"x"}]`, want: "missing id"},
		{name: "duplicate", data: `[{"id":"a"},{"id":"a"}]`, want: "duplicate"},
		{name: "bad config", data: `[{"id":"a","config":{"algorithm":"nope"}}]`, want: "unknown algorithm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestProfileRegistry(t *testing.T) {
	SetProfiles(DefaultProfiles())
	t.Cleanup(func() { SetProfiles(DefaultProfiles()) })

	if _, ok := GetProfile("explorer"); !ok {
		t.Fatalf("explorer missing")
	}
	SetProfileUserID("explorer", "user-123", "bot_explorer_1")
	p, _ := GetProfile("explorer")
	if p.UserID != "user-123" || p.Username != "bot_explorer_1" {
		t.Fatalf("profile = %+v", p)
	}
	if !IsBotUser("user-123") || IsBotUser("someone") || IsBotUser("") {
		t.Fatalf("IsBotUser misreported")
	}

	list := ListProfiles()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID > list[i].ID {
			t.Fatalf("ListProfiles not sorted: %s before %s", list[i-1].ID, list[i].ID)
		}
	}
}

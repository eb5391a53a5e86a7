package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Profile is a named bot preset. Hosts that keep accounts for bots fill
// UserID once the account exists.
type Profile struct {
	ID          string       `json:"id"`
	DeviceID    string       `json:"device_id,omitempty"`
	UserID      string       `json:"user_id,omitempty"`
	Username    string       `json:"username,omitempty"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description,omitempty"`
	Config      SearchConfig `json:"config"`
}

type profileEntry struct {
	ID          string          `json:"id"`
	DeviceID    string          `json:"device_id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

var (
	profiles    []Profile
	profileByID map[string]Profile
	profilesMu  sync.RWMutex
	loadOnce    sync.Once
	loadErr     error
)

// DefaultProfiles is the built-in roster, one preset per strategy.
func DefaultProfiles() []Profile {
	base := DefaultSearchConfig()
	deep := base.WithAlgorithm(AlgorithmExpectimax)
	deep.ExpectimaxDepth = 3
	return []Profile{
		{ID: "dice", Username: "bot_dice", DisplayName: "Dice", Description: "Uniformly random valid moves", Config: base.WithAlgorithm(AlgorithmRandom)},
		{ID: "hoarder", Username: "bot_hoarder", DisplayName: "Hoarder", Description: "Keeps as many cells empty as possible", Config: base.WithAlgorithm(AlgorithmGreedy)},
		{ID: "classic", Username: "bot_classic", DisplayName: "Classic", Description: "One-ply board evaluation", Config: base.WithAlgorithm(AlgorithmHeuristic)},
		{ID: "sweeper", Username: "bot_sweeper", DisplayName: "Sweeper", Description: "Clears small tiles first", Config: base.WithAlgorithm(AlgorithmRemoveSmall)},
		{ID: "tinkerer", Username: "bot_tinkerer", DisplayName: "Tinkerer", Description: "User weighted heuristics", Config: base.WithAlgorithm(AlgorithmCombined)},
		{ID: "planner", Username: "bot_planner", DisplayName: "Planner", Description: "Expectimax, two plies", Config: base.WithAlgorithm(AlgorithmExpectimax)},
		{ID: "deep_planner", Username: "bot_deep_planner", DisplayName: "Deep Planner", Description: "Expectimax, three plies", Config: deep},
		{ID: "explorer", Username: "bot_explorer", DisplayName: "Explorer", Description: "Monte Carlo tree search", Config: base.WithAlgorithm(AlgorithmMCTS)},
	}
}

// ParseProfiles decodes a JSON array of profiles. Each config is applied on
// top of DefaultSearchConfig and validated.
func ParseProfiles(data []byte) ([]Profile, error) {
	var entries []profileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot profiles: %w", err)
	}
	out := make([]Profile, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("bot profile %d: missing id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("bot profile %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		cfg := DefaultSearchConfig()
		if len(e.Config) > 0 {
			parsed, err := ParseSearchConfig(e.Config, cfg)
			if err != nil {
				return nil, fmt.Errorf("bot profile %q: %w", e.ID, err)
			}
			cfg = parsed
		}
		name := e.DisplayName
		if name == "" {
			name = e.ID
		}
		out = append(out, Profile{
			ID:          e.ID,
			DeviceID:    e.DeviceID,
			Username:    e.Username,
			DisplayName: name,
			Description: e.Description,
			Config:      cfg,
		})
	}
	return out, nil
}

// LoadProfiles reads the roster from path once. Until it succeeds the
// built-in roster is served.
func LoadProfiles(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot profiles: %w", err)
			return
		}
		parsed, err := ParseProfiles(data)
		if err != nil {
			loadErr = err
			return
		}
		SetProfiles(parsed)
	})
	return loadErr
}

// SetProfiles replaces the active roster.
func SetProfiles(list []Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles = append([]Profile(nil), list...)
	profileByID = make(map[string]Profile, len(list))
	for _, p := range list {
		profileByID[p.ID] = p
	}
}

// SetProfileUserID records the account backing a profile.
func SetProfileUserID(id, userID, username string) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	if profiles == nil {
		profiles = DefaultProfiles()
		profileByID = make(map[string]Profile, len(profiles))
		for _, p := range profiles {
			profileByID[p.ID] = p
		}
	}
	for i := range profiles {
		if profiles[i].ID == id {
			profiles[i].UserID = userID
			if username != "" {
				profiles[i].Username = username
			}
			profileByID[id] = profiles[i]
		}
	}
}

// ListProfiles returns the active roster sorted by id.
func ListProfiles() []Profile {
	profilesMu.RLock()
	list := profiles
	profilesMu.RUnlock()
	if list == nil {
		list = DefaultProfiles()
	}
	out := append([]Profile(nil), list...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetProfile looks a profile up by id.
func GetProfile(id string) (Profile, bool) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	if profileByID == nil {
		for _, p := range DefaultProfiles() {
			if p.ID == id {
				return p, true
			}
		}
		return Profile{}, false
	}
	p, ok := profileByID[id]
	return p, ok
}

// IsBotUser reports whether userID belongs to a profile account.
func IsBotUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, p := range ListProfiles() {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Package watcher tails a game log, extracts kill events against roster
// members and submits them to the tracker service.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const rosterFetchTimeout = 5 * time.Second

// Roster is an immutable set of tracked member handles. Filtering keeps
// events where the victim is on the roster and the attacker is not.
type Roster struct {
	members map[string]struct{}
}

// NewRoster builds a roster from a list of handles.
func NewRoster(names []string) Roster {
	members := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			members[n] = struct{}{}
		}
	}
	return Roster{members: members}
}

// Contains reports whether name is on the roster.
func (r Roster) Contains(name string) bool {
	_, ok := r.members[name]
	return ok
}

// Len returns the roster size.
func (r Roster) Len() int {
	return len(r.members)
}

// FetchRoster pulls the member list from the tracker service. Any failure
// returns an error so the caller can fall back to a static list.
func FetchRoster(ctx context.Context, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/roster", nil)
	if err != nil {
		return nil, fmt.Errorf("build roster request: %w", err)
	}
	client := &http.Client{Timeout: rosterFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch roster: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Roster []string `json:"roster"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return out.Roster, nil
}

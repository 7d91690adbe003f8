package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marque/internal/adapters/http/api"
	"marque/internal/adapters/repository"
	"marque/internal/domain/model"
	logging "marque/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	events  map[uint64]*model.Event
	players map[uint64]*model.Player
	nextID  uint64
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		events:  make(map[uint64]*model.Event),
		players: make(map[uint64]*model.Player),
	}
}

func (f *fakeDeps) Ingest(ctx context.Context, sub model.EventSubmission) (*model.Event, error) {
	f.nextID++
	ev := &model.Event{
		EventID:      f.nextID,
		Timestamp:    sub.Timestamp,
		AttackerName: sub.AttackerName,
		VictimName:   sub.VictimName,
		Zone:         sub.Zone,
		DamageType:   sub.DamageType,
		Confirmed:    true,
	}
	f.events[ev.EventID] = ev
	return ev, nil
}

func (f *fakeDeps) Confirm(ctx context.Context, eventID uint64) (*model.Event, error) {
	ev, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, repository.ErrNotFound)
	}
	ev.Confirmed = true
	return ev, nil
}

func (f *fakeDeps) Bounties(ctx context.Context, limit int) ([]model.BountyEntry, error) {
	entries := []model.BountyEntry{
		{Rank: 1, PlayerID: 1, Name: "Raider", Score: 13.0},
		{Rank: 2, PlayerID: 2, Name: "Trader", Score: 4.5},
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeDeps) PlayerByID(ctx context.Context, id uint64) (*model.Player, []model.PlayerOrganization, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, nil, fmt.Errorf("player %d: %w", id, repository.ErrNotFound)
	}
	return p, []model.PlayerOrganization{}, nil
}

func (f *fakeDeps) PlayerByName(ctx context.Context, name string) (*model.Player, []model.PlayerOrganization, error) {
	for _, p := range f.players {
		if p.Name == name {
			return p, []model.PlayerOrganization{}, nil
		}
	}
	return nil, nil, fmt.Errorf("player %q: %w", name, repository.ErrNotFound)
}

func (f *fakeDeps) Roster(ctx context.Context) ([]string, error) {
	return []string{"Member_A", "Member_B"}, nil
}

func (f *fakeDeps) Heatmap(ctx context.Context) ([]api.Hotspot, error) {
	return []api.Hotspot{{Body: "Daymar", Count: 2}}, nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(opts ...api.ServerOption) (*httptest.Server, *fakeDeps) {
	_ = logging.Init()
	deps := newFakeDeps()
	srv := api.NewServer(deps, deps, opts...)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return httptest.NewServer(mux), deps
}

func validEventBody() string {
	return `{
		"timestamp": "2024-03-18T21:14:03.412Z",
		"attacker_name": "Raider",
		"victim_name": "Trader",
		"zone": "OOC_Stanton_2b_Daymar",
		"coords": {"x": 1, "y": 2, "z": 3},
		"damage_type": "VehicleDestruction",
		"ship_value_estimate": 120000
	}`
}

func TestPostEvent(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()
		defer ts.Close()

		Convey("When posting a valid event", func() {
			resp, err := http.Post(ts.URL+"/api/v1/events", "application/json", strings.NewReader(validEventBody()))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the stored event is echoed with an id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				var ev model.Event
				So(json.NewDecoder(resp.Body).Decode(&ev), ShouldBeNil)
				So(ev.EventID, ShouldEqual, 1)
				So(ev.AttackerName, ShouldEqual, "Raider")
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(ts.URL+"/api/v1/events", "application/json", strings.NewReader("{not json"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a required field is missing", func() {
			for _, body := range []string{
				`{"victim_name": "Trader", "damage_type": "Death", "timestamp": "t", "coords": {"x": 1, "y": 2, "z": 3}}`,
				`{"attacker_name": "Raider", "damage_type": "Death", "timestamp": "t", "coords": {"x": 1, "y": 2, "z": 3}}`,
				`{"attacker_name": "Raider", "victim_name": "Trader", "timestamp": "t", "coords": {"x": 1, "y": 2, "z": 3}}`,
				`{"attacker_name": "Raider", "victim_name": "Trader", "damage_type": "Death", "coords": {"x": 1, "y": 2, "z": 3}}`,
				`{"attacker_name": "Raider", "victim_name": "Trader", "damage_type": "Death", "timestamp": "t"}`,
			} {
				resp, err := http.Post(ts.URL+"/api/v1/events", "application/json", strings.NewReader(body))
				So(err, ShouldBeNil)
				resp.Body.Close()

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When using GET on the events endpoint", func() {
			resp, err := http.Get(ts.URL + "/api/v1/events")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPostEventAuth(t *testing.T) {
	Convey("Given a server requiring an API key", t, func() {
		ts, _ := newTestServer(api.WithClientKey("secret"))
		defer ts.Close()

		Convey("When the key is missing", func() {
			resp, err := http.Post(ts.URL+"/api/v1/events", "application/json", strings.NewReader(validEventBody()))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the key matches", func() {
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/events", bytes.NewReader([]byte(validEventBody())))
			So(err, ShouldBeNil)
			req.Header.Set("X-API-Key", "secret")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		})
	})
}

func TestConfirmEvent(t *testing.T) {
	Convey("Given a server with one ingested event", t, func() {
		ts, deps := newTestServer(api.WithAdminKey("admin-secret"))
		defer ts.Close()

		ev, err := deps.Ingest(context.Background(), model.EventSubmission{
			Timestamp: "t", AttackerName: "Raider", VictimName: "Trader", DamageType: "Death",
		})
		So(err, ShouldBeNil)

		confirm := func(path, key string) *http.Response {
			req, err := http.NewRequest(http.MethodPost, ts.URL+path, nil)
			So(err, ShouldBeNil)
			if key != "" {
				req.Header.Set("X-Admin-Key", key)
			}
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When confirming with the admin key", func() {
			resp := confirm(fmt.Sprintf("/api/v1/events/%d/confirm", ev.EventID), "admin-secret")
			defer resp.Body.Close()

			Convey("Then the confirmed event is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got model.Event
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.Confirmed, ShouldBeTrue)
			})
		})

		Convey("When the admin key is missing", func() {
			resp := confirm(fmt.Sprintf("/api/v1/events/%d/confirm", ev.EventID), "")
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the event does not exist", func() {
			resp := confirm("/api/v1/events/999/confirm", "admin-secret")
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the id is not numeric", func() {
			resp := confirm("/api/v1/events/abc/confirm", "admin-secret")
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the action segment is wrong", func() {
			resp := confirm(fmt.Sprintf("/api/v1/events/%d/reject", ev.EventID), "admin-secret")
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetBounties(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()
		defer ts.Close()

		Convey("When reading bounties without a limit", func() {
			resp, err := http.Get(ts.URL + "/api/v1/bounties")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then entries come back ranked", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []model.BountyEntry
				So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Name, ShouldEqual, "Raider")
				So(entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When limiting the list", func() {
			resp, err := http.Get(ts.URL + "/api/v1/bounties?limit=1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var entries []model.BountyEntry
			So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
		})

		Convey("When the limit is malformed", func() {
			for _, q := range []string{"limit=abc", "limit=0", "limit=-3"} {
				resp, err := http.Get(ts.URL + "/api/v1/bounties?" + q)
				So(err, ShouldBeNil)
				resp.Body.Close()

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestGetPlayers(t *testing.T) {
	Convey("Given a server with a known player", t, func() {
		ts, deps := newTestServer()
		defer ts.Close()

		deps.players[7] = &model.Player{ID: 7, Name: "Raider_X"}

		Convey("When fetching by id", func() {
			resp, err := http.Get(ts.URL + "/api/v1/pirates/7")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the profile carries its memberships", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var got struct {
					Name          string                     `json:"name"`
					Organizations []model.PlayerOrganization `json:"organizations"`
				}
				So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
				So(got.Name, ShouldEqual, "Raider_X")
				So(got.Organizations, ShouldNotBeNil)
			})
		})

		Convey("When fetching by name", func() {
			resp, err := http.Get(ts.URL + "/api/v1/pirates/by-name?name=Raider_X")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the player is unknown", func() {
			for _, path := range []string{"/api/v1/pirates/999", "/api/v1/pirates/by-name?name=Ghost"} {
				resp, err := http.Get(ts.URL + path)
				So(err, ShouldBeNil)
				resp.Body.Close()

				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			}
		})

		Convey("When the id is malformed", func() {
			resp, err := http.Get(ts.URL + "/api/v1/pirates/not-a-number")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetRosterAndHeatmap(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts, _ := newTestServer()
		defer ts.Close()

		Convey("When reading the roster", func() {
			resp, err := http.Get(ts.URL + "/api/v1/roster")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got struct {
				Roster []string `json:"roster"`
			}
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got.Roster, ShouldResemble, []string{"Member_A", "Member_B"})
		})

		Convey("When reading the heatmap", func() {
			resp, err := http.Get(ts.URL + "/api/v1/heatmap")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var got struct {
				Hotspots []api.Hotspot `json:"hotspots"`
			}
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(len(got.Hotspots), ShouldEqual, 1)
			So(got.Hotspots[0].Body, ShouldEqual, "Daymar")
		})

		Convey("When reading stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

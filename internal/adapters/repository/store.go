// Package repository persists players, events and organizations and serves
// the ranked bounty reads.
package repository

import (
	"context"
	"time"

	"marque/internal/domain/model"
)

// IngestResult is the outcome of one atomic event ingestion.
type IngestResult struct {
	Event    *model.Event
	Attacker *model.Player
	Victim   *model.Player
	// Kill reports whether the damage type credited a kill to the attacker.
	Kill bool
}

// Store provides read/write access to the tracker state.
type Store interface {
	// ResolveOrCreatePlayer finds the canonical player for an (external id,
	// name) reference, creating it on first sighting. LastSeen advances on
	// every call; counters are never touched here.
	ResolveOrCreatePlayer(ctx context.Context, externalID *int64, name string, org *string) (*model.Player, error)

	// IngestEvent resolves both players, persists the event with snapshot
	// fields and bumps aggregates, all in one transaction.
	IngestEvent(ctx context.Context, sub model.EventSubmission) (*IngestResult, error)

	// ConfirmEvent marks an event confirmed. Idempotent; ErrNotFound for an
	// unknown id.
	ConfirmEvent(ctx context.Context, eventID uint64) (*model.Event, error)

	// PlayerByID and PlayerByName read player profiles.
	PlayerByID(ctx context.Context, id uint64) (*model.Player, error)
	PlayerByName(ctx context.Context, name string) (*model.Player, error)

	// RosterNames lists the names of players carrying the given org tag.
	RosterNames(ctx context.Context, orgTag string) ([]string, error)

	// RecomputeScores rewrites every player's cached score as of now.
	RecomputeScores(ctx context.Context, now time.Time) error

	// TopBounties returns players ordered by descending score.
	TopBounties(ctx context.Context, limit int) ([]model.BountyEntry, error)

	// UpsertOrganization creates or patches an organization; nil metadata
	// fields keep whatever is stored.
	UpsertOrganization(ctx context.Context, meta model.OrgMetadata) error

	// LinkPlayerOrganization upserts the (player, org) membership row.
	LinkPlayerOrganization(ctx context.Context, playerID uint64, sid string, rank *string, source string) error

	// Organizations lists all known organizations.
	Organizations(ctx context.Context) ([]model.Organization, error)

	// PlayerOrganizations lists the membership rows for one player.
	PlayerOrganizations(ctx context.Context, playerID uint64) ([]model.PlayerOrganization, error)

	// ConfirmedEventCoords returns the coordinates of confirmed events for
	// hotspot aggregation.
	ConfirmedEventCoords(ctx context.Context) ([]model.Coord, error)

	// CountPlayers returns the number of tracked players.
	CountPlayers(ctx context.Context) (int64, error)
}

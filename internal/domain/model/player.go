// Package model contains the persistent entities and wire shapes shared
// between the watcher client and the tracker service.
package model

import "time"

// Player is a tracked combatant identity with lifetime aggregates.
//
// Identity resolution is dual-keyed: ExternalID (the game-assigned numeric
// id) when present, otherwise Name. Both carry uniqueness constraints so a
// concurrent first-sighting of the same player collapses onto one row via
// conflict retry instead of racing lookup-then-insert.
type Player struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID *int64  `gorm:"uniqueIndex" json:"external_id,omitempty"`
	Name       string  `gorm:"uniqueIndex;not null" json:"name"`
	Org        *string `gorm:"index" json:"org,omitempty"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `gorm:"index" json:"last_seen"`

	TotalAttacks   int64   `gorm:"default:0" json:"total_attacks"`
	TotalKills     int64   `gorm:"default:0" json:"total_kills"`
	ValueDestroyed float64 `gorm:"default:0" json:"value_destroyed"`

	// Score is a cached ranking value, recomputed before every ranked read.
	Score float64 `gorm:"default:0;index" json:"score"`
}

// Organization holds metadata for a group, keyed by its external short
// identifier. Rows are written only by the enrichment workers.
type Organization struct {
	SID         string  `gorm:"column:sid;primaryKey" json:"sid"`
	Name        *string `gorm:"index" json:"name,omitempty"`
	Logo        *string `json:"logo,omitempty"`
	URL         *string `json:"url,omitempty"`
	MemberCount *int    `json:"member_count,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PlayerOrganization links a player to an organization. A player may belong
// to several organizations but at most one row exists per (player, org).
type PlayerOrganization struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  uint64 `gorm:"not null;index;uniqueIndex:uq_player_org" json:"player_id"`
	OrgSID    string `gorm:"column:org_sid;not null;index;uniqueIndex:uq_player_org" json:"org_sid"`
	IsPrimary bool   `gorm:"default:false;index" json:"is_primary"`

	Rank   *string `json:"rank,omitempty"`
	Role   *string `json:"role,omitempty"`
	Source *string `json:"source,omitempty"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// OrgMetadata is the field-wise payload applied to an Organization upsert.
// Nil fields leave the stored value untouched.
type OrgMetadata struct {
	SID         string
	Name        *string
	Logo        *string
	URL         *string
	MemberCount *int
}

// BountyEntry is one row of the ranked bounty list.
type BountyEntry struct {
	Rank           int     `json:"rank"`
	PlayerID       uint64  `json:"player_id"`
	Name           string  `json:"name"`
	Org            *string `json:"org,omitempty"`
	TotalAttacks   int64   `json:"total_attacks"`
	TotalKills     int64   `json:"total_kills"`
	ValueDestroyed float64 `json:"value_destroyed"`
	Score          float64 `json:"score"`
}

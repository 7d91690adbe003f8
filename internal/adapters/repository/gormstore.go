package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marque/internal/domain/model"
	"marque/internal/domain/scoring"
)

// resolveAttempts bounds the create/re-query loop under concurrent first
// sightings of the same player.
const resolveAttempts = 3

// GormStore implements Store on a GORM-managed database.
type GormStore struct {
	db     *gorm.DB
	scorer *scoring.Scorer
	now    func() time.Time
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{
		db:     db,
		scorer: scoring.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the schema for all tracked entities.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&model.Player{},
		&model.Event{},
		&model.Organization{},
		&model.PlayerOrganization{},
	)
}

// ResolveOrCreatePlayer implements Store.
func (s *GormStore) ResolveOrCreatePlayer(ctx context.Context, externalID *int64, name string, org *string) (*model.Player, error) {
	var player *model.Player
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.resolveOrCreate(tx, externalID, name, org)
		player = p
		return err
	})
	return player, err
}

// resolveOrCreate runs the dual-key resolution inside tx: external id first,
// then exact name, then create. Creation races are absorbed by the unique
// constraints plus re-query.
func (s *GormStore) resolveOrCreate(tx *gorm.DB, externalID *int64, name string, org *string) (*model.Player, error) {
	if name == "" {
		return nil, fmt.Errorf("resolve player: empty name")
	}
	now := s.now().UTC()

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		var p model.Player
		found := false

		if externalID != nil {
			err := tx.Where("external_id = ?", *externalID).First(&p).Error
			if err == nil {
				found = true
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("lookup player by external id: %w", err)
			}
		}
		if !found {
			err := tx.Where("name = ?", name).First(&p).Error
			if err == nil {
				found = true
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("lookup player by name: %w", err)
			}
		}

		if found {
			updates := map[string]interface{}{}
			// Merge policy: an exact-name match adopts a numeric id it was
			// first recorded without. Rows never merge across names.
			if externalID != nil && p.ExternalID == nil {
				p.ExternalID = externalID
				updates["external_id"] = *externalID
			}
			if org != nil && *org != "" {
				p.Org = org
				updates["org"] = *org
			}
			if now.After(p.LastSeen) {
				p.LastSeen = now
				updates["last_seen"] = now
			}
			if len(updates) > 0 {
				if err := tx.Model(&model.Player{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
					return nil, fmt.Errorf("touch player: %w", err)
				}
			}
			return &p, nil
		}

		p = model.Player{
			ExternalID: externalID,
			Name:       name,
			Org:        org,
			FirstSeen:  now,
			LastSeen:   now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
		if res.Error != nil {
			return nil, fmt.Errorf("create player: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return &p, nil
		}
		// Conflict: another request created the row first. Loop and
		// resolve against the winner.
	}
	return nil, fmt.Errorf("resolve player %q: retries exhausted", name)
}

// IngestEvent implements Store. The whole operation is one transaction:
// either the event row and both aggregate updates land, or nothing does.
func (s *GormStore) IngestEvent(ctx context.Context, sub model.EventSubmission) (*IngestResult, error) {
	var out IngestResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attacker, err := s.resolveOrCreate(tx, sub.AttackerID, sub.AttackerName, sub.AttackerOrg)
		if err != nil {
			return err
		}
		victim, err := s.resolveOrCreate(tx, sub.VictimID, sub.VictimName, nil)
		if err != nil {
			return err
		}

		ev := model.Event{
			Timestamp: sub.Timestamp,
			// Snapshot fields: copied from the resolved players at this
			// instant and never rewritten afterwards.
			AttackerID:        &attacker.ID,
			VictimID:          &victim.ID,
			AttackerName:      attacker.Name,
			AttackerOrg:       attacker.Org,
			VictimName:        victim.Name,
			Zone:              sub.Zone,
			Weapon:            sub.Weapon,
			DamageType:        sub.DamageType,
			ShipValueEstimate: sub.ShipValueEstimate,
			RawLine:           sub.SourceLine,
			Confirmed:         true,
		}
		if sub.Coords != nil {
			x, y, z := sub.Coords.X, sub.Coords.Y, sub.Coords.Z
			ev.X, ev.Y, ev.Z = &x, &y, &z
		}
		if err := tx.Create(&ev).Error; err != nil {
			return fmt.Errorf("persist event: %w", err)
		}

		kill := model.IsKillDamage(sub.DamageType)
		attackerUpdates := map[string]interface{}{
			"total_attacks":   gorm.Expr("total_attacks + 1"),
			"value_destroyed": gorm.Expr("value_destroyed + ?", sub.ShipValueEstimate),
		}
		if kill {
			attackerUpdates["total_kills"] = gorm.Expr("total_kills + 1")
		}
		if err := tx.Model(&model.Player{}).Where("id = ?", attacker.ID).Updates(attackerUpdates).Error; err != nil {
			return fmt.Errorf("update attacker stats: %w", err)
		}
		// Victims log the encounter but are credited neither kills nor value.
		if err := tx.Model(&model.Player{}).Where("id = ?", victim.ID).
			Update("total_attacks", gorm.Expr("total_attacks + 1")).Error; err != nil {
			return fmt.Errorf("update victim stats: %w", err)
		}

		out = IngestResult{Event: &ev, Attacker: attacker, Victim: victim, Kill: kill}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmEvent implements Store.
func (s *GormStore) ConfirmEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	var ev model.Event
	err := s.db.WithContext(ctx).First(&ev, "event_id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !ev.Confirmed {
		if err := s.db.WithContext(ctx).Model(&ev).Update("confirmed", true).Error; err != nil {
			return nil, fmt.Errorf("confirm event: %w", err)
		}
		ev.Confirmed = true
	}
	return &ev, nil
}

// PlayerByID implements Store.
func (s *GormStore) PlayerByID(ctx context.Context, id uint64) (*model.Player, error) {
	var p model.Player
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	return &p, nil
}

// PlayerByName implements Store.
func (s *GormStore) PlayerByName(ctx context.Context, name string) (*model.Player, error) {
	var p model.Player
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("player %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	return &p, nil
}

// RosterNames implements Store.
func (s *GormStore) RosterNames(ctx context.Context, orgTag string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&model.Player{}).
		Where("org = ?", orgTag).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return names, nil
}

// RecomputeScores implements Store. Scores are a display cache; no lock is
// held against concurrent stat updates and a ranked read may trail an
// in-flight ingestion by one recompute.
func (s *GormStore) RecomputeScores(ctx context.Context, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var players []model.Player
		if err := tx.Find(&players).Error; err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		for i := range players {
			p := &players[i]
			score := s.scorer.Score(scoring.Input{
				TotalKills:     p.TotalKills,
				TotalAttacks:   p.TotalAttacks,
				ValueDestroyed: p.ValueDestroyed,
				LastSeen:       p.LastSeen,
			}, now)
			if err := tx.Model(&model.Player{}).Where("id = ?", p.ID).Update("score", score).Error; err != nil {
				return fmt.Errorf("store score for %q: %w", p.Name, err)
			}
		}
		return nil
	})
}

// TopBounties implements Store.
func (s *GormStore) TopBounties(ctx context.Context, limit int) ([]model.BountyEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	var players []model.Player
	err := s.db.WithContext(ctx).
		Order("score DESC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	entries := make([]model.BountyEntry, len(players))
	for i, p := range players {
		entries[i] = model.BountyEntry{
			Rank:           i + 1,
			PlayerID:       p.ID,
			Name:           p.Name,
			Org:            p.Org,
			TotalAttacks:   p.TotalAttacks,
			TotalKills:     p.TotalKills,
			ValueDestroyed: p.ValueDestroyed,
			Score:          p.Score,
		}
	}
	return entries, nil
}

// UpsertOrganization implements Store. Only fields present in meta overwrite
// stored values; absent fields survive later sparse payloads.
func (s *GormStore) UpsertOrganization(ctx context.Context, meta model.OrgMetadata) error {
	if meta.SID == "" {
		return fmt.Errorf("upsert organization: empty sid")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org model.Organization
		err := tx.Where("sid = ?", meta.SID).First(&org).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			org = model.Organization{
				SID:         meta.SID,
				Name:        meta.Name,
				Logo:        meta.Logo,
				URL:         meta.URL,
				MemberCount: meta.MemberCount,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&org).Error; err != nil {
				return fmt.Errorf("create organization: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load organization: %w", err)
		}

		updates := map[string]interface{}{}
		if meta.Name != nil {
			updates["name"] = *meta.Name
		}
		if meta.Logo != nil {
			updates["logo"] = *meta.Logo
		}
		if meta.URL != nil {
			updates["url"] = *meta.URL
		}
		if meta.MemberCount != nil {
			updates["member_count"] = *meta.MemberCount
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&model.Organization{}).Where("sid = ?", meta.SID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update organization: %w", err)
		}
		return nil
	})
}

// LinkPlayerOrganization implements Store.
func (s *GormStore) LinkPlayerOrganization(ctx context.Context, playerID uint64, sid string, rank *string, source string) error {
	now := s.now().UTC()
	link := model.PlayerOrganization{
		PlayerID:  playerID,
		OrgSID:    sid,
		IsPrimary: true,
		Rank:      rank,
		Source:    &source,
		FirstSeen: now,
		LastSeen:  now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "org_sid"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank", "source", "last_seen"}),
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("link player organization: %w", err)
	}
	return nil
}

// Organizations implements Store.
func (s *GormStore) Organizations(ctx context.Context) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := s.db.WithContext(ctx).Order("sid").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// PlayerOrganizations implements Store.
func (s *GormStore) PlayerOrganizations(ctx context.Context, playerID uint64) ([]model.PlayerOrganization, error) {
	var links []model.PlayerOrganization
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("org_sid").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("list player organizations: %w", err)
	}
	return links, nil
}

// ConfirmedEventCoords implements Store.
func (s *GormStore) ConfirmedEventCoords(ctx context.Context) ([]model.Coord, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Select("x", "y", "z").
		Where("confirmed = ? AND x IS NOT NULL AND y IS NOT NULL AND z IS NOT NULL", true).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list event coordinates: %w", err)
	}
	coords := make([]model.Coord, 0, len(events))
	for _, ev := range events {
		coords = append(coords, model.Coord{X: *ev.X, Y: *ev.Y, Z: *ev.Z})
	}
	return coords, nil
}

// CountPlayers implements Store.
func (s *GormStore) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Player{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

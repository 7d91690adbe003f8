package model

// Event is one recorded attack. Once persisted the row is immutable except
// for the Confirmed flag.
//
// AttackerName, AttackerOrg and VictimName are point-in-time snapshots taken
// at ingestion. They intentionally do not follow later Player mutations; the
// event row is the audit trail.
type Event struct {
	EventID uint64 `gorm:"primaryKey;autoIncrement" json:"event_id"`

	// Timestamp is the source-provided string from the log line, not a
	// server clock reading.
	Timestamp string `gorm:"index" json:"timestamp"`

	AttackerID *uint64 `gorm:"index" json:"attacker_id,omitempty"`
	VictimID   *uint64 `gorm:"index" json:"victim_id,omitempty"`

	AttackerName string  `gorm:"index" json:"attacker_name"`
	AttackerOrg  *string `gorm:"index" json:"attacker_org,omitempty"`
	VictimName   string  `gorm:"index" json:"victim_name"`

	Zone string   `json:"zone"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Z    *float64 `json:"z,omitempty"`

	Weapon            *string `json:"weapon,omitempty"`
	DamageType        string  `json:"damage_type"`
	ShipValueEstimate float64 `gorm:"default:0" json:"ship_value_estimate"`

	RawLine   *string `gorm:"type:text" json:"raw_line,omitempty"`
	Confirmed bool    `gorm:"default:true" json:"confirmed"`
}

// Coord is a 3D position sample.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// KillEvent is a structured kill extracted from one log line by the parser.
type KillEvent struct {
	Timestamp    string
	VictimName   string
	VictimID     int64
	AttackerName string
	AttackerOrg  *string
	AttackerID   int64
	Zone         string
	Weapon       *string
	DamageType   string
	Coords       Coord
	SourceLine   string
}

// EventSubmission is the JSON body posted to the ingestion endpoint. The
// watcher builds it from a KillEvent; the server validates and persists it.
type EventSubmission struct {
	Timestamp         string   `json:"timestamp"`
	AttackerName      string   `json:"attacker_name"`
	AttackerID        *int64   `json:"attacker_id,omitempty"`
	AttackerOrg       *string  `json:"attacker_org,omitempty"`
	VictimName        string   `json:"victim_name"`
	VictimID          *int64   `json:"victim_id,omitempty"`
	Zone              string   `json:"zone"`
	Coords            *Coord   `json:"coords"`
	Weapon            *string  `json:"weapon,omitempty"`
	DamageType        string   `json:"damage_type"`
	ShipValueEstimate float64  `json:"ship_value_estimate"`
	SourceLine        *string  `json:"source_line,omitempty"`
}

// Submission converts a parsed kill into the wire shape.
func (k *KillEvent) Submission(shipValue float64) EventSubmission {
	coords := k.Coords
	raw := k.SourceLine
	attackerID := k.AttackerID
	victimID := k.VictimID
	return EventSubmission{
		Timestamp:         k.Timestamp,
		AttackerName:      k.AttackerName,
		AttackerID:        &attackerID,
		AttackerOrg:       k.AttackerOrg,
		VictimName:        k.VictimName,
		VictimID:          &victimID,
		Zone:              k.Zone,
		Coords:            &coords,
		Weapon:            k.Weapon,
		DamageType:        k.DamageType,
		ShipValueEstimate: shipValue,
		SourceLine:        &raw,
	}
}

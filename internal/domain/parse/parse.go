// Package parse extracts structured kill events from raw game log lines.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"marque/internal/domain/model"
)

// killPattern matches the Actor Death notice emitted by the game log:
//
//	<ts> [Notice] <Actor Death> CActor::Kill: 'victim' [id] in zone 'zone'
//	killed by attacker (ORG) [id] ... damage type 'type' ... x: f, y: f, z: f
//
// Keyword matching is case-insensitive. Anything else is a non-match.
var killPattern = regexp.MustCompile(`(?i)<(?P<ts>[^>]+)>\s*\[Notice\]\s*<Actor Death>\s*CActor::Kill:\s*'(?P<victim>[^']+)'\s*\[(?P<victim_id>\d+)\]\s*in zone\s*'(?P<zone>[^']+)'\s*killed by\s*(?P<attacker>[^\[]+?)\s*\[(?P<attacker_id>\d+)\].*?damage type\s*'(?P<damage>[^']+)'.*?x:\s*(?P<x>-?\d+(?:\.\d+)?),\s*y:\s*(?P<y>-?\d+(?:\.\d+)?),\s*z:\s*(?P<z>-?\d+(?:\.\d+)?)`)

// Parse extracts a kill event from line. The second return is false when the
// line does not fit the grammar; that is the expected high-frequency case and
// never an error.
func Parse(line string) (*model.KillEvent, bool) {
	m := killPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	g := func(name string) string {
		return m[killPattern.SubexpIndex(name)]
	}

	victimID, err := strconv.ParseInt(g("victim_id"), 10, 64)
	if err != nil {
		return nil, false
	}
	attackerID, err := strconv.ParseInt(g("attacker_id"), 10, 64)
	if err != nil {
		return nil, false
	}
	x, err := strconv.ParseFloat(g("x"), 64)
	if err != nil {
		return nil, false
	}
	y, err := strconv.ParseFloat(g("y"), 64)
	if err != nil {
		return nil, false
	}
	z, err := strconv.ParseFloat(g("z"), 64)
	if err != nil {
		return nil, false
	}

	attackerName, attackerOrg := splitAttacker(g("attacker"))

	return &model.KillEvent{
		Timestamp:    g("ts"),
		VictimName:   g("victim"),
		VictimID:     victimID,
		AttackerName: attackerName,
		AttackerOrg:  attackerOrg,
		AttackerID:   attackerID,
		Zone:         g("zone"),
		DamageType:   g("damage"),
		Coords:       model.Coord{X: x, Y: y, Z: z},
		SourceLine:   strings.TrimSpace(line),
	}, true
}

// splitAttacker separates "Name (ORG)" into name and org tag. The substring
// before the first '(' is the name; the content of the first parenthesised
// pair is the tag. No parentheses means no org.
func splitAttacker(raw string) (string, *string) {
	raw = strings.TrimSpace(raw)
	open := strings.Index(raw, "(")
	if open < 0 || !strings.Contains(raw[open:], ")") {
		return raw, nil
	}
	name := strings.TrimSpace(raw[:open])
	rest := raw[open+1:]
	org := strings.TrimSpace(rest[:strings.Index(rest, ")")])
	if org == "" {
		return name, nil
	}
	return name, &org
}

package model

import "strings"

// IsKillDamage reports whether a damage type counts as a kill. The rule is a
// literal substring match: any damage type containing "death" or
// "destruction", case-insensitively, credits a kill ("SoftDeath" included).
func IsKillDamage(damageType string) bool {
	dt := strings.ToLower(damageType)
	return strings.Contains(dt, "death") || strings.Contains(dt, "destruction")
}

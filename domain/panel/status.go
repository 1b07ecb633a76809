package panel

import (
	"fmt"
	"strings"
)

// StatusCategory is the ordinal political status of an ethnic group,
// ranked from least to most access to central executive power.
type StatusCategory int

const (
	StatusUnknown StatusCategory = iota
	StatusDiscriminated
	StatusPowerless
	StatusSelfExclusion
	StatusJuniorPartner
	StatusSeniorPartner
	StatusDominant
	StatusMonopoly
)

// ExcludedRankThreshold is the default power rank at or below which a
// group is considered politically excluded (ranks 1-3 excluded, 4-7
// included).
const ExcludedRankThreshold = 3

var statusNames = map[StatusCategory]string{
	StatusDiscriminated: "DISCRIMINATED",
	StatusPowerless:     "POWERLESS",
	StatusSelfExclusion: "SELF-EXCLUSION",
	StatusJuniorPartner: "JUNIOR PARTNER",
	StatusSeniorPartner: "SENIOR PARTNER",
	StatusDominant:      "DOMINANT",
	StatusMonopoly:      "MONOPOLY",
}

// AllStatuses lists the categories in ascending power-rank order.
func AllStatuses() []StatusCategory {
	return []StatusCategory{
		StatusDiscriminated,
		StatusPowerless,
		StatusSelfExclusion,
		StatusJuniorPartner,
		StatusSeniorPartner,
		StatusDominant,
		StatusMonopoly,
	}
}

// ParseStatus parses a dataset status label into a StatusCategory.
// Matching is case-insensitive and tolerant of underscore separators.
func ParseStatus(s string) (StatusCategory, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	for status, name := range statusNames {
		if name == normalized || strings.ReplaceAll(name, "-", " ") == normalized {
			return status, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown political status %q", s)
}

// StatusFromRank maps a power rank (1-7) to its category.
func StatusFromRank(rank int) (StatusCategory, error) {
	if rank < 1 || rank > 7 {
		return StatusUnknown, fmt.Errorf("power rank %d out of range [1,7]", rank)
	}
	return StatusCategory(rank), nil
}

// Rank returns the ordinal power rank (1-7), or 0 for unknown.
func (s StatusCategory) Rank() int {
	if s < StatusDiscriminated || s > StatusMonopoly {
		return 0
	}
	return int(s)
}

// ExcludedAt reports whether this status lacks access to central power
// under the given power-rank threshold. Exclusion is a deterministic
// function of the status category and the threshold.
func (s StatusCategory) ExcludedAt(threshold int) bool {
	return s.Rank() >= 1 && s.Rank() <= threshold
}

// String returns the canonical dataset label for the status.
func (s StatusCategory) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

package utils

import "strings"

// NormalizePlate folds a detected plate to the canonical form used for
// session keys and registry lookups: no spaces or dashes, upper case.
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ToUpper(normalized)
	return normalized
}

// Package heatmap turns weekly completion aggregates into a day-level
// activity series. The daily split is fabricated, but deterministically: the
// same week always produces the same days.
package heatmap

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Salts separate the independent uses of Weight for a single day.
const (
	SaltSelect = 1
	SaltBias   = 2
	SaltSpread = 3
)

const weightScale = 1 << 31

// Weight returns a reproducible value in [0, 1) for a calendar day and salt.
// The 64-bit digest is folded to its top 31 bits before scaling.
func Weight(date string, salt int) float64 {
	sum := xxhash.Sum64String(date + ":" + strconv.Itoa(salt))
	return float64(sum>>33) / weightScale
}

package services

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"route-optimizer-service/internal/domain"
	"slices"
	"strconv"
	"strings"
)

// Fingerprint identifies an unordered stop set as priced by source. Coordinates
// are rounded to ~1m and sorted, so any reordering of the same stops yields the
// same key while adding, removing or moving a stop yields a different one. A
// different source (provider, profile) never shares a key.
//
// order lists request indices in canonical (sorted) order: order[p] is the
// request index of the stop at canonical position p.
func Fingerprint(source string, coords []domain.Coordinates) (fp string, order []int) {
	order = make([]int, len(coords))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := coords[a].Rounded(), coords[b].Rounded()
		if c := cmp.Compare(ra.Lat, rb.Lat); c != 0 {
			return c
		}
		return cmp.Compare(ra.Lon, rb.Lon)
	})

	keys := make([]string, len(order))
	for p, idx := range order {
		keys[p] = coords[idx].Key()
	}

	sum := sha256.Sum256([]byte(source + "|" + strconv.Itoa(len(coords)) + "|" + strings.Join(keys, ";")))
	return hex.EncodeToString(sum[:]), order
}

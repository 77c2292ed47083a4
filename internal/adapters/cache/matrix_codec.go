package cache

import (
	"encoding/json"
	"fmt"
	"route-optimizer-service/internal/domain"
	"strings"
)

func encodeMatrix(m *domain.CostMatrix) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("encode matrix: %w", err)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode matrix: %w", err)
	}
	return b, nil
}

// decodeMatrix rejects payloads that no longer satisfy the matrix invariants,
// so a corrupt entry reads as a miss rather than poisoning a run.
func decodeMatrix(b []byte) (*domain.CostMatrix, error) {
	var m domain.CostMatrix
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	return &m, nil
}

func checkFingerprint(fp string) error {
	if strings.TrimSpace(fp) == "" {
		return fmt.Errorf("%w: matrix cache: empty fingerprint", domain.ErrInvalidInput)
	}
	return nil
}

// uniqueKeys trims, drops blanks and de-duplicates while keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

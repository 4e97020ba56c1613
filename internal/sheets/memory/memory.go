package memory

import (
	"context"
	"fmt"
	"sync"

	"fooddrive/internal/core"
	ports "fooddrive/internal/sheets"
)

var _ ports.DonationWriter = (*Store)(nil)

// Store keeps mirrored rows in memory. The worker uses it when no spreadsheet
// is configured.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	refs map[int64]string
}

func New() *Store {
	return &Store{refs: map[int64]string{}}
}

// AppendDonation stores the row once per donation ID and returns a synthetic reference.
func (s *Store) AppendDonation(_ context.Context, d core.Donation) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[d.ID]; ok {
		return ref, nil
	}
	s.rows = append(s.rows, ports.Row(d))
	ref := fmt.Sprintf("mem:%d", len(s.rows))
	s.refs[d.ID] = ref
	return ref, nil
}

// Rows returns a copy of every stored row in append order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

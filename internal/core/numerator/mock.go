// Package numerator provides domain contracts for sequential document numbering.
package numerator

import (
	"context"
	"sync"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
)

// MockAuthority is an in-memory test implementation of Authority.
// Use in unit tests to avoid database dependencies.
type MockAuthority struct {
	// AssignNextFunc overrides the default behavior when set.
	AssignNextFunc func(ctx context.Context, issuerID id.ID, kind DocumentKind, issueYear int) (Assignment, error)

	mu sync.Mutex
	// Series maps issuer to its active invoice series (default "A").
	Series map[id.ID]string
	// Counters holds the last assigned value per issuer+kind.
	Counters map[counterKey]int64
	// Known restricts assignment to listed issuers when non-nil.
	Known map[id.ID]bool
}

type counterKey struct {
	Issuer id.ID
	Kind   DocumentKind
}

// NewMockAuthority creates an empty mock with default series "A".
func NewMockAuthority() *MockAuthority {
	return &MockAuthority{
		Series:   make(map[id.ID]string),
		Counters: make(map[counterKey]int64),
	}
}

// SetCounter seeds an issuer's last-used value for a kind.
func (m *MockAuthority) SetCounter(issuerID id.ID, kind DocumentKind, last int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[counterKey{issuerID, kind}] = last
}

// Counter returns the current last-used value for a kind.
func (m *MockAuthority) Counter(issuerID id.ID, kind DocumentKind) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[counterKey{issuerID, kind}]
}

// AssignNext implements Authority.
func (m *MockAuthority) AssignNext(ctx context.Context, issuerID id.ID, kind DocumentKind, issueYear int) (Assignment, error) {
	if m.AssignNextFunc != nil {
		return m.AssignNextFunc(ctx, issuerID, kind, issueYear)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Known != nil && !m.Known[issuerID] {
		return Assignment{}, apperror.NewNotFound("issuer", issuerID)
	}

	key := counterKey{issuerID, kind}
	m.Counters[key]++
	seq := m.Counters[key]

	series := QuoteSeries
	if kind == KindInvoice {
		series = m.Series[issuerID]
		if series == "" {
			series = "A"
		}
	}

	return Assignment{
		Sequence:   seq,
		Series:     series,
		FullNumber: FormatFullNumber(series, issueYear, seq),
	}, nil
}

// Ensure compile-time interface compliance.
var _ Authority = (*MockAuthority)(nil)

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/domain"
)

// Resolve decides the market's outcome. A resolved market rejects all
// further submissions; resolving twice is an error.
func (m *Market) Resolve(ctx context.Context, outcome domain.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return domain.ErrMarketResolved
	}
	switch outcome {
	case domain.Yes, domain.No:
	default:
		return fmt.Errorf("%w: outcome must be YES or NO, got %q", domain.ErrInvalidOrder, outcome)
	}
	m.resolved = true
	m.outcome = outcome
	if m.repo != nil {
		_ = m.repo.SaveResolution(ctx, outcome, m.now())
	}
	return nil
}

// Resolved reports whether the outcome is decided, and which way.
func (m *Market) Resolved() (domain.Option, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome, m.resolved
}

// UpdateProbability records the externally estimated probability of the
// YES outcome, as produced by the forecast calculator each price tick.
func (m *Market) UpdateProbability(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(one) {
		return fmt.Errorf("%w: probability %s must be within [0,1]", domain.ErrInvalidOrder, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probability = p
	return nil
}

// Probability returns the last recorded YES probability.
func (m *Market) Probability() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probability
}

func (m *Market) Question() string { return m.question }

func (m *Market) Expiry() time.Time { return m.expiry }

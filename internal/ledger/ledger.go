// Package ledger pairs every currency mutation with an audit trail entry so
// balance history stays reconstructable from the store alone.
package ledger

import "context"

type EconomyStore interface {
	IncrementEconomy(ctx context.Context, userID, field string, amount int64) error
	AppendAuditLog(ctx context.Context, userID, kind string, payload map[string]any) error
}

type Ledger struct {
	store EconomyStore
}

func New(s EconomyStore) *Ledger {
	return &Ledger{store: s}
}

func (l *Ledger) CreditFragments(ctx context.Context, userID string, amount int64, reason string) error {
	return l.apply(ctx, userID, "fragments", amount, reason)
}

func (l *Ledger) CreditShards(ctx context.Context, userID string, amount int64, reason string) error {
	return l.apply(ctx, userID, "data_shards", amount, reason)
}

func (l *Ledger) apply(ctx context.Context, userID, field string, amount int64, reason string) error {
	if amount == 0 {
		return nil
	}
	if err := l.store.IncrementEconomy(ctx, userID, field, amount); err != nil {
		return err
	}
	// Best effort: the balance change is durable even if the trail write fails.
	_ = l.store.AppendAuditLog(ctx, userID, "economy_credit", map[string]any{
		"field":  field,
		"amount": amount,
		"reason": reason,
	})
	return nil
}

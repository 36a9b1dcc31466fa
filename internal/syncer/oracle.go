package syncer

import (
	"context"
	"fmt"
)

// IntegrityLookup fetches the store's view of a question identity, scoped to
// the course at coursePath.
type IntegrityLookup interface {
	QuestionIdentity(ctx context.Context, coursePath, qid, uuid string) (IntegrityRow, error)
}

// Oracle answers whether an incremental sync is safe. Results are never
// cached: incremental syncs take no lock, so a concurrent full sync may change
// the answer between calls.
type Oracle struct {
	lookup IntegrityLookup
}

func NewOracle(lookup IntegrityLookup) *Oracle {
	return &Oracle{lookup: lookup}
}

// IsQuestionSafe reports whether the question id can be synced incrementally.
func (o *Oracle) IsQuestionSafe(ctx context.Context, coursePath string, id Identity) (bool, error) {
	row, err := o.lookup.QuestionIdentity(ctx, coursePath, id.ShortID, id.UUID)
	if err != nil {
		return false, fmt.Errorf("integrity check for question %s: %w", id.ShortID, err)
	}
	return CheckIdentity(id.UUID, row), nil
}

package usecase

import (
	"context"
	"errors"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/metrics"
)

// RecipientClaimer hands out each eligible recipient at most once across all
// processes sharing the store. A claim is never released.
type RecipientClaimer struct {
	store RecipientStore
}

func NewRecipientClaimer(store RecipientStore) *RecipientClaimer {
	return &RecipientClaimer{store: store}
}

// ClaimNext returns found=false when no eligible recipient remains. Storage
// failures come back as *domain.PersistenceError and are not retried.
func (c *RecipientClaimer) ClaimNext(ctx context.Context) (domain.Recipient, bool, error) {
	r, err := c.store.ClaimNextRecipient(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligibleRecipient) {
			return domain.Recipient{}, false, nil
		}
		return domain.Recipient{}, false, &domain.PersistenceError{Op: "claim recipient", Err: err}
	}
	metrics.DefaultInstance().IncRecipientsClaimed()
	return r, true, nil
}

package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultExpiryBatchSize = 100

// PaymentExpiryService cancels gateway payments nobody ever completed
type PaymentExpiryService struct {
	payments  *PaymentService
	expiry    time.Duration
	batchSize int
	clock     Clock
	logger    *logrus.Logger
}

// NewPaymentExpiryService creates a new PaymentExpiryService
func NewPaymentExpiryService(payments *PaymentService, expiry time.Duration, clock Clock, logger *logrus.Logger) *PaymentExpiryService {
	return &PaymentExpiryService{
		payments:  payments,
		expiry:    expiry,
		batchSize: defaultExpiryBatchSize,
		clock:     clock,
		logger:    logger,
	}
}

// Run expires pending gateway payments older than the configured window, in batches,
// until a short batch shows nothing is left
func (s *PaymentExpiryService) Run(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.expiry)
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := s.payments.ExpireStalePending(ctx, cutoff, s.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		// Skipped rows still count against the batch, so stop on a partial one
		if n < s.batchSize {
			break
		}
	}

	if total > 0 {
		s.logger.WithFields(logrus.Fields{
			"expired": total,
			"cutoff":  cutoff,
		}).Info("Expired stale pending payments")
	}
	return total, nil
}

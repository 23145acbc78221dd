package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// ReferenceService allocates human-readable booking references
type ReferenceService struct {
	bookings BookingStore
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(bookings BookingStore) *ReferenceService {
	return &ReferenceService{bookings: bookings}
}

// GenerateBookingReference returns {prefix}-{YYYYMM}-{NNNN} and its sequence.
// The sequence is 1 + the number of bookings of the service type created in now's
// calendar month. After a collision callers pass the sequence they tried as lastTried;
// a fresh count that already includes the winner is used as is, otherwise the
// sequence moves one past lastTried.
func (s *ReferenceService) GenerateBookingReference(ctx context.Context, q database.Querier, serviceType models.ServiceType, now time.Time, lastTried int) (string, int, error) {
	prefix := serviceType.ReferencePrefix()
	if prefix == "" {
		return "", 0, validationError("service_type", "unknown service type %q", serviceType)
	}

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	count, err := s.bookings.CountByServiceTypeInMonth(ctx, q, serviceType, from, to)
	if err != nil {
		return "", 0, fmt.Errorf("failed to allocate booking reference: %w", err)
	}

	sequence := count + 1
	if sequence <= lastTried {
		sequence = lastTried + 1
	}
	return FormatBookingReference(serviceType, now, sequence), sequence, nil
}

// FormatBookingReference renders a booking reference for a sequence number
func FormatBookingReference(serviceType models.ServiceType, now time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%04d", serviceType.ReferencePrefix(), now.Format("200601"), sequence)
}

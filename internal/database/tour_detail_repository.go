package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// TourDetailRepository handles tour_details persistence
type TourDetailRepository struct{}

// NewTourDetailRepository creates a new TourDetailRepository
func NewTourDetailRepository() *TourDetailRepository {
	return &TourDetailRepository{}
}

// Insert stores the tour detail of a booking
func (r *TourDetailRepository) Insert(ctx context.Context, q Querier, d *models.TourDetail) error {
	query := `
		INSERT INTO tour_details (
			id, booking_id, pickup_location, pickup_time, dropoff_location,
			room_type, meal_plan, guide_language, special_requests, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.ExecContext(ctx, query,
		d.ID, d.BookingID, d.PickupLocation, d.PickupTime, d.DropoffLocation,
		d.RoomType, d.MealPlan, d.GuideLanguage, d.SpecialRequests, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tour detail: %w", MapError(err))
	}
	return nil
}

// GetByBookingID retrieves the tour detail of a booking
func (r *TourDetailRepository) GetByBookingID(ctx context.Context, q Querier, bookingID uuid.UUID) (*models.TourDetail, error) {
	var d models.TourDetail
	query := `
		SELECT id, booking_id, pickup_location, pickup_time, dropoff_location,
			room_type, meal_plan, guide_language, special_requests, created_at, updated_at
		FROM tour_details WHERE booking_id = $1`

	if err := q.GetContext(ctx, &d, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourDetailNotFound
		}
		return nil, fmt.Errorf("failed to get tour detail: %w", err)
	}
	return &d, nil
}

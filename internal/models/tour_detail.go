package models

import (
	"time"

	"github.com/google/uuid"
)

// Tour detail defaults applied when a tour booking is created
const (
	DefaultPickupTime    = "08:00"
	DefaultRoomType      = "standard"
	DefaultMealPlan      = "breakfast"
	DefaultGuideLanguage = "English"
)

// TourDetail holds the tour-specific part of a booking (tour_details table)
type TourDetail struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BookingID       uuid.UUID `json:"booking_id" db:"booking_id"`
	PickupLocation  *string   `json:"pickup_location,omitempty" db:"pickup_location"`
	PickupTime      string    `json:"pickup_time" db:"pickup_time"`
	DropoffLocation *string   `json:"dropoff_location,omitempty" db:"dropoff_location"`
	RoomType        string    `json:"room_type" db:"room_type"`
	MealPlan        string    `json:"meal_plan" db:"meal_plan"`
	GuideLanguage   string    `json:"guide_language" db:"guide_language"`
	SpecialRequests *string   `json:"special_requests,omitempty" db:"special_requests"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// NewDefaultTourDetail builds the detail row created alongside every tour booking
func NewDefaultTourDetail(bookingID uuid.UUID, now time.Time) *TourDetail {
	return &TourDetail{
		ID:            uuid.New(),
		BookingID:     bookingID,
		PickupTime:    DefaultPickupTime,
		RoomType:      DefaultRoomType,
		MealPlan:      DefaultMealPlan,
		GuideLanguage: DefaultGuideLanguage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

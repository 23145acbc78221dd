package models

import (
	"github.com/shopspring/decimal"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// CalculateFinalAmount returns max(0, selling + additional - discount)
func CalculateFinalAmount(sellingPrice, additionalCharges, discountAmount decimal.Decimal) decimal.Decimal {
	return money.ClampZero(money.Round2(sellingPrice.Add(additionalCharges).Sub(discountAmount)))
}

// CalculateDueAmount returns max(0, final - paid)
func CalculateDueAmount(finalAmount, paidAmount decimal.Decimal) decimal.Decimal {
	return money.ClampZero(finalAmount.Sub(paidAmount))
}

// DeriveBookingPaymentStatus classifies payment progress from amounts alone.
// Refunded is never derived; only the refund flow sets it.
func DeriveBookingPaymentStatus(finalAmount, paidAmount decimal.Decimal) BookingPaymentStatus {
	switch {
	case paidAmount.GreaterThanOrEqual(finalAmount):
		return BookingPaymentPaid
	case money.IsPositive(paidAmount):
		return BookingPaymentPartial
	default:
		return BookingPaymentPending
	}
}

// RecalculateAmounts re-derives FinalAmount and DueAmount from the current financial inputs.
// It is the only place these two fields are written.
func (b *Booking) RecalculateAmounts() {
	b.FinalAmount = CalculateFinalAmount(b.SellingPrice, b.AdditionalCharges, b.DiscountAmount)
	b.DueAmount = CalculateDueAmount(b.FinalAmount, b.PaidAmount)
}

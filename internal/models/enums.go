package models

// ============================================================================
// SERVICE TYPES
// ============================================================================

// ServiceType is the category of product being booked
type ServiceType string

const (
	ServiceTour      ServiceType = "tour"
	ServiceCarRental ServiceType = "car_rental"
	ServiceFlight    ServiceType = "flight"
	ServiceHotel     ServiceType = "hotel"
	ServiceTransfer  ServiceType = "transfer"
	ServiceCruise    ServiceType = "cruise"
	ServiceTransport ServiceType = "transport"
	ServiceVisa      ServiceType = "visa"
)

var serviceTypePrefixes = map[ServiceType]string{
	ServiceTour:      "TR",
	ServiceCarRental: "CR",
	ServiceFlight:    "FL",
	ServiceHotel:     "HT",
	ServiceTransfer:  "TF",
	ServiceCruise:    "CS",
	ServiceTransport: "TP",
	ServiceVisa:      "VS",
}

// Valid reports whether the service type is one of the known values
func (s ServiceType) Valid() bool {
	_, ok := serviceTypePrefixes[s]
	return ok
}

// ReferencePrefix returns the 2-letter prefix used in booking references
func (s ServiceType) ReferencePrefix() string {
	return serviceTypePrefixes[s]
}

// ============================================================================
// BOOKING STATUS & SOURCE
// ============================================================================

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingDraft     BookingStatus = "draft"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether the status is known
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingDraft, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition can leave this state
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// BookingSource is the channel a booking was created through
type BookingSource string

const (
	SourceWebsite   BookingSource = "website"
	SourceMobileApp BookingSource = "mobile_app"
	SourceWalkIn    BookingSource = "walk_in"
	SourcePhone     BookingSource = "phone"
	SourceAgent     BookingSource = "agent"
	SourceAdmin     BookingSource = "admin"
)

// Valid reports whether the source is known
func (s BookingSource) Valid() bool {
	switch s {
	case SourceWebsite, SourceMobileApp, SourceWalkIn, SourcePhone, SourceAgent, SourceAdmin:
		return true
	}
	return false
}

// InitialStatus returns the entry state for bookings created through this source.
// Self-service channels start as drafts; staff-assisted channels are confirmed on entry.
func (s BookingSource) InitialStatus() BookingStatus {
	switch s {
	case SourceWebsite, SourceMobileApp:
		return BookingDraft
	default:
		return BookingConfirmed
	}
}

// BookingPaymentStatus is the derived payment classification of a booking
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPartial  BookingPaymentStatus = "partial"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// ============================================================================
// PAYMENT ENUMS
// ============================================================================

// PaymentType is the purpose of a payment
type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "advance"
	PaymentTypePartial PaymentType = "partial"
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeRefund  PaymentType = "refund"
)

// Valid reports whether the payment type is known
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeAdvance, PaymentTypePartial, PaymentTypeFull, PaymentTypeRefund:
		return true
	}
	return false
}

// PayerRole identifies who made the payment
type PayerRole string

const (
	PayerCustomer PayerRole = "customer"
	PayerAgent    PayerRole = "agent"
	PayerAdmin    PayerRole = "admin"
)

// Valid reports whether the payer role is known
func (r PayerRole) Valid() bool {
	return r == PayerCustomer || r == PayerAgent || r == PayerAdmin
}

// PaymentStatus is the state of a single payment attempt
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Valid reports whether the payment status is known
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the money was (or will be) collected
type PaymentMethod string

const (
	// Manual / point of sale
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodPOSCard      PaymentMethod = "pos_card"

	// International gateways
	MethodStripe PaymentMethod = "stripe"
	MethodPayPal PaymentMethod = "paypal"

	// Sri Lanka
	MethodPayable PaymentMethod = "payable"
	MethodPayHere PaymentMethod = "payhere"
	MethodWebXPay PaymentMethod = "webxpay"

	// Nepal
	MethodESewa   PaymentMethod = "esewa"
	MethodKhalti  PaymentMethod = "khalti"
	MethodFonepay PaymentMethod = "fonepay"

	// Bangladesh
	MethodBKash      PaymentMethod = "bkash"
	MethodNagad      PaymentMethod = "nagad"
	MethodSSLCommerz PaymentMethod = "sslcommerz"

	// India
	MethodRazorpay PaymentMethod = "razorpay"
	MethodUPI      PaymentMethod = "upi"
)

var manualMethods = map[PaymentMethod]bool{
	MethodCash:         true,
	MethodBankTransfer: true,
	MethodCheque:       true,
	MethodPOSCard:      true,
}

var gatewayMethods = map[PaymentMethod]bool{
	MethodStripe:     true,
	MethodPayPal:     true,
	MethodPayable:    true,
	MethodPayHere:    true,
	MethodWebXPay:    true,
	MethodESewa:      true,
	MethodKhalti:     true,
	MethodFonepay:    true,
	MethodBKash:      true,
	MethodNagad:      true,
	MethodSSLCommerz: true,
	MethodRazorpay:   true,
	MethodUPI:        true,
}

// Valid reports whether the method is known
func (m PaymentMethod) Valid() bool {
	return manualMethods[m] || gatewayMethods[m]
}

// IsManual reports whether the method is recorded by staff rather than a gateway
func (m PaymentMethod) IsManual() bool {
	return manualMethods[m]
}

// IsGateway reports whether status updates for this method arrive via gateway callbacks
func (m PaymentMethod) IsGateway() bool {
	return gatewayMethods[m]
}

// GatewayMethods lists every gateway-driven method
func GatewayMethods() []PaymentMethod {
	methods := make([]PaymentMethod, 0, len(gatewayMethods))
	for m := range gatewayMethods {
		methods = append(methods, m)
	}
	return methods
}

package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// memDB is an in-memory ledger. WithTx snapshots every table and restores the
// snapshot when fn fails, so rolled-back attempts leave no rows behind.
// Transactions run one at a time, standing in for the booking row lock.
type memDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	bookings    map[uuid.UUID]models.Booking
	payments    map[uuid.UUID]models.Payment
	tourDetails map[uuid.UUID]models.TourDetail
	rules       map[uuid.UUID]models.CommissionRule
	audits      []models.PaymentAudit

	// referenceCollisions makes the next N booking inserts fail on the reference constraint
	referenceCollisions int
	txCount             int
}

func newMemDB() *memDB {
	return &memDB{
		bookings:    map[uuid.UUID]models.Booking{},
		payments:    map[uuid.UUID]models.Payment{},
		tourDetails: map[uuid.UUID]models.TourDetail{},
		rules:       map[uuid.UUID]models.CommissionRule{},
	}
}

type memSnapshot struct {
	bookings    map[uuid.UUID]models.Booking
	payments    map[uuid.UUID]models.Payment
	tourDetails map[uuid.UUID]models.TourDetail
	audits      []models.PaymentAudit
}

func (m *memDB) snapshot() memSnapshot {
	s := memSnapshot{
		bookings:    make(map[uuid.UUID]models.Booking, len(m.bookings)),
		payments:    make(map[uuid.UUID]models.Payment, len(m.payments)),
		tourDetails: make(map[uuid.UUID]models.TourDetail, len(m.tourDetails)),
		audits:      append([]models.PaymentAudit(nil), m.audits...),
	}
	for k, v := range m.bookings {
		s.bookings[k] = v
	}
	for k, v := range m.payments {
		s.payments[k] = v
	}
	for k, v := range m.tourDetails {
		s.tourDetails[k] = v
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.bookings = s.bookings
	m.payments = s.payments
	m.tourDetails = s.tourDetails
	m.audits = s.audits
}

func (m *memDB) WithTx(ctx context.Context, fn func(q database.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.txCount++
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memDB) Querier() database.Querier {
	return nil
}

func (m *memDB) auditsOfType(t models.PaymentEventType) []models.PaymentAudit {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentAudit
	for _, a := range m.audits {
		if a.EventType == t {
			out = append(out, a)
		}
	}
	return out
}

// ---------------------------------------------------------------------------

type memBookings struct{ db *memDB }

func (s *memBookings) CountByServiceTypeInMonth(ctx context.Context, q database.Querier, serviceType models.ServiceType, from, to time.Time) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, b := range s.db.bookings {
		if b.ServiceType == serviceType && !b.CreatedAt.Before(from) && b.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (s *memBookings) Insert(ctx context.Context, q database.Querier, b *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.referenceCollisions > 0 {
		s.db.referenceCollisions--
		return &database.UniqueViolationError{Constraint: database.ConstraintBookingReference}
	}
	for _, existing := range s.db.bookings {
		if existing.BookingReference == b.BookingReference {
			return &database.UniqueViolationError{Constraint: database.ConstraintBookingReference}
		}
	}
	s.db.bookings[b.ID] = *b
	return nil
}

func (s *memBookings) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.bookings[id]
	if !ok {
		return nil, database.ErrBookingNotFound
	}
	return &b, nil
}

func (s *memBookings) GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Booking, error) {
	return s.GetByID(ctx, q, id)
}

func (s *memBookings) GetByReference(ctx context.Context, q database.Querier, reference string) (*models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, b := range s.db.bookings {
		if b.BookingReference == reference {
			found := b
			return &found, nil
		}
	}
	return nil, database.ErrBookingNotFound
}

func (s *memBookings) Update(ctx context.Context, q database.Querier, b *models.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.bookings[b.ID]
	if !ok || stored.Version != b.Version {
		return database.ErrConcurrencyConflict
	}
	b.Version++
	s.db.bookings[b.ID] = *b
	return nil
}

func (s *memBookings) List(ctx context.Context, q database.Querier, filter models.BookingFilter) ([]models.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Booking
	for _, b := range s.db.bookings {
		if filter.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *filter.CustomerID) {
			continue
		}
		if filter.AgentID != nil && (b.AgentID == nil || *b.AgentID != *filter.AgentID) {
			continue
		}
		if filter.ServiceType != nil && b.ServiceType != *filter.ServiceType {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------

type memPayments struct{ db *memDB }

func (s *memPayments) CountByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, p := range s.db.payments {
		if p.BookingID == bookingID {
			n++
		}
	}
	return n, nil
}

func (s *memPayments) Insert(ctx context.Context, q database.Querier, p *models.Payment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.payments {
		if existing.PaymentReference == p.PaymentReference {
			return &database.UniqueViolationError{Constraint: database.ConstraintPaymentReference}
		}
	}
	s.db.payments[p.ID] = *p
	return nil
}

func (s *memPayments) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok {
		return nil, database.ErrPaymentNotFound
	}
	return &p, nil
}

func (s *memPayments) GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Payment, error) {
	return s.GetByID(ctx, q, id)
}

func (s *memPayments) GetByReference(ctx context.Context, q database.Querier, reference string) (*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.payments {
		if p.PaymentReference == reference {
			found := p
			return &found, nil
		}
	}
	return nil, database.ErrPaymentNotFound
}

func (s *memPayments) ListByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) ([]models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Payment{}
	for _, p := range s.db.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentSequence > out[j].PaymentSequence })
	return out, nil
}

func (s *memPayments) HasActiveRefund(ctx context.Context, q database.Querier, paymentID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.payments {
		if p.RefundOfPaymentID != nil && *p.RefundOfPaymentID == paymentID &&
			p.Status != models.PaymentFailed && p.Status != models.PaymentCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (s *memPayments) UpdateStatus(ctx context.Context, q database.Querier, p *models.Payment, fromStatus models.PaymentStatus) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.payments[p.ID]
	if !ok || stored.Status != fromStatus {
		return false, nil
	}
	s.db.payments[p.ID] = *p
	return true, nil
}

func (s *memPayments) ListStalePending(ctx context.Context, q database.Querier, methods []models.PaymentMethod, cutoff time.Time, limit int) ([]models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	allowed := map[models.PaymentMethod]bool{}
	for _, m := range methods {
		allowed[m] = true
	}
	var out []models.Payment
	for _, p := range s.db.payments {
		if p.Status == models.PaymentPending && allowed[p.PaymentMethod] && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memPayments) status(id uuid.UUID) models.PaymentStatus {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.payments[id].Status
}

// ---------------------------------------------------------------------------

type memTourDetails struct{ db *memDB }

func (s *memTourDetails) Insert(ctx context.Context, q database.Querier, d *models.TourDetail) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tourDetails[d.BookingID] = *d
	return nil
}

func (s *memTourDetails) GetByBookingID(ctx context.Context, q database.Querier, bookingID uuid.UUID) (*models.TourDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.tourDetails[bookingID]
	if !ok {
		return nil, database.ErrTourDetailNotFound
	}
	return &d, nil
}

// ---------------------------------------------------------------------------

type memRules struct{ db *memDB }

func (s *memRules) Upsert(ctx context.Context, q database.Querier, rule *models.CommissionRule) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, existing := range s.db.rules {
		if existing.ServiceType == rule.ServiceType && sameAgent(existing.AgentID, rule.AgentID) {
			rule.ID = id
			rule.CreatedAt = existing.CreatedAt
		}
	}
	s.db.rules[rule.ID] = *rule
	return nil
}

func (s *memRules) FindForQuote(ctx context.Context, q database.Querier, serviceType models.ServiceType, agentID *uuid.UUID) (*models.CommissionRule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var fallback *models.CommissionRule
	for _, r := range s.db.rules {
		if r.ServiceType != serviceType || !r.IsActive {
			continue
		}
		rule := r
		if agentID != nil && r.AgentID != nil && *r.AgentID == *agentID {
			return &rule, nil
		}
		if r.AgentID == nil {
			fallback = &rule
		}
	}
	if fallback == nil {
		return nil, database.ErrCommissionRuleNotFound
	}
	return fallback, nil
}

func (s *memRules) List(ctx context.Context, q database.Querier, serviceType *models.ServiceType) ([]models.CommissionRule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.CommissionRule
	for _, r := range s.db.rules {
		if serviceType == nil || r.ServiceType == *serviceType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memRules) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.rules[id]; !ok {
		return database.ErrCommissionRuleNotFound
	}
	delete(s.db.rules, id)
	return nil
}

func sameAgent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---------------------------------------------------------------------------

type memAudits struct{ db *memDB }

func (s *memAudits) Log(ctx context.Context, q database.Querier, audit *models.PaymentAudit) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audits = append(s.db.audits, *audit)
	return nil
}

func (s *memAudits) CheckDuplicate(ctx context.Context, q database.Querier, eventType models.PaymentEventType, idempotencyKey string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.audits {
		if a.EventType == eventType && a.IdempotencyKey != nil && *a.IdempotencyKey == idempotencyKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *memAudits) ListByPayment(ctx context.Context, q database.Querier, paymentID uuid.UUID) ([]models.PaymentAudit, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.PaymentAudit
	for _, a := range s.db.audits {
		if a.PaymentID != nil && *a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testLedger wires every service over one memDB
type testLedger struct {
	db          *memDB
	clock       *fixedClock
	bookingRepo *memBookings
	paymentRepo *memPayments
	ruleRepo    *memRules
	bookings    *BookingService
	payments    *PaymentService
	commissions *CommissionService
	expiry      *PaymentExpiryService
}

func newTestLedger(now time.Time) *testLedger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db := newMemDB()
	clock := &fixedClock{now: now}
	bookingRepo := &memBookings{db: db}
	paymentRepo := &memPayments{db: db}
	ruleRepo := &memRules{db: db}
	audits := &memAudits{db: db}

	commissions := NewCommissionService(db, ruleRepo, clock, logger)
	references := NewReferenceService(bookingRepo)
	bookings := NewBookingService(db, bookingRepo, paymentRepo, &memTourDetails{db: db}, audits,
		references, commissions, DefaultBookingConfig(), clock, logger)
	payments := NewPaymentService(db, bookingRepo, paymentRepo, audits, clock, logger)

	return &testLedger{
		db:          db,
		clock:       clock,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		ruleRepo:    ruleRepo,
		bookings:    bookings,
		payments:    payments,
		commissions: commissions,
		expiry:      NewPaymentExpiryService(payments, time.Hour, clock, logger),
	}
}

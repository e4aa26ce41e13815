package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/payments"
	"busline/internal/shared/apperrors"
	"busline/internal/trips"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeatIndexName is the partial unique index on (trip_id, seat_id) over occupancy states.
const SeatIndexName = "ux_bookings_trip_seat_active"

// AmountCheckName is the check constraint keeping amount_paid <= total_amount.
const AmountCheckName = "chk_bookings_amount_paid_le_total"

type Repository interface {
	// WithinTrip runs fn in one transaction holding the trip row lock.
	// Every write that can change occupancy goes through here.
	WithinTrip(ctx context.Context, tripID uuid.UUID, fn func(tx TxRepository, trip *trips.Trip) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByShareToken(ctx context.Context, token string) (*Booking, error)
	AssignShareToken(ctx context.Context, id uuid.UUID, token string) (bool, error)
	List(ctx context.Context, query ListQuery) ([]Booking, int64, error)

	// ActiveClaims is an unsynchronized read for display purposes.
	ActiveClaims(ctx context.Context, tripID uuid.UUID) ([]trips.Claim, error)
	TripsWithDueHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error)
}

// TxRepository is the view of storage available inside WithinTrip.
type TxRepository interface {
	Claims(tripID uuid.UUID) ([]trips.Claim, error)
	LockBooking(id uuid.UUID) (*Booking, error)
	Create(b *Booking) error
	Save(b *Booking) error
	CountInStates(tripID uuid.UUID, states ...State) (int64, error)
	// MoveAll moves every booking of the trip in one of from to the state to and
	// returns the moved rows.
	MoveAll(tripID uuid.UUID, from []State, to State, at time.Time, reason string) ([]Booking, error)
	// ExpireDue expires reservations of the trip whose deadline is before now.
	ExpireDue(tripID uuid.UUID, now time.Time) ([]Booking, error)
	SaveTrip(trip *trips.Trip) error
	PaymentByRef(ref string) (*payments.Payment, error)
	CreatePayment(p *payments.Payment) error
	SavePayment(p *payments.Payment) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithinTrip(ctx context.Context, tripID uuid.UUID, fn func(tx TxRepository, trip *trips.Trip) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trip trips.Trip
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", tripID).
			First(&trip).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("trip", tripID.String())
			}
			return fmt.Errorf("failed to lock trip: %w", err)
		}
		return fn(&txRepository{tx: tx}, &trip)
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByShareToken(ctx context.Context, token string) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).Where("share_token = ?", token).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// AssignShareToken sets the token only when none exists yet.
func (r *repository) AssignShareToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND share_token IS NULL", id).
		Updates(map[string]interface{}{"share_token": token, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	var list []Booking
	var total int64

	base := r.db.WithContext(ctx).Model(&Booking{})
	if query.TripID != "" {
		base = base.Where("trip_id = ?", query.TripID)
	}
	if query.State != "" {
		base = base.Where("state = ?", query.State)
	}
	if query.Phone != "" {
		base = base.Where("passenger_phone = ?", query.Phone)
	}
	if query.Reference != "" {
		base = base.Where("reference = ?", query.Reference)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := base.Order("created_at DESC").Offset(offset).Limit(query.Limit).Find(&list).Error
	return list, total, err
}

type claimRow struct {
	ID              uuid.UUID
	BoardingStopID  uuid.UUID
	AlightingStopID uuid.UUID
	SeatID          *uuid.UUID
}

func loadClaims(db *gorm.DB, tripID uuid.UUID) ([]trips.Claim, error) {
	var rows []claimRow
	err := db.Model(&Booking{}).
		Select("id, boarding_stop_id, alighting_stop_id, seat_id").
		Where("trip_id = ? AND state IN ?", tripID, OccupancyStates).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	claims := make([]trips.Claim, len(rows))
	for i, row := range rows {
		claims[i] = trips.Claim{
			BookingID:    row.ID,
			BoardStopID:  row.BoardingStopID,
			AlightStopID: row.AlightingStopID,
			SeatID:       row.SeatID,
		}
	}
	return claims, nil
}

func (r *repository) ActiveClaims(ctx context.Context, tripID uuid.UUID) ([]trips.Claim, error) {
	return loadClaims(r.db.WithContext(ctx), tripID)
}

func (r *repository) TripsWithDueHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Distinct("trip_id").
		Where("state = ? AND booking_type = ? AND reservation_deadline < ?", StateReserved, BookingTypeReservation, now).
		Limit(limit).
		Pluck("trip_id", &ids).Error
	return ids, err
}

func (r *repository) TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error) {
	var revenue int64
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("trip_id = ? AND state NOT IN ?", tripID, []State{StateCancelled, StateRefunded, StateExpired}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&revenue).Error
	return revenue, err
}

type txRepository struct {
	tx *gorm.DB
}

func (t *txRepository) Claims(tripID uuid.UUID) ([]trips.Claim, error) {
	return loadClaims(t.tx, tripID)
}

func (t *txRepository) LockBooking(id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking", id.String())
		}
		return nil, err
	}
	return &booking, nil
}

func (t *txRepository) Create(b *Booking) error {
	return mapWriteError(t.tx.Create(b).Error)
}

func (t *txRepository) Save(b *Booking) error {
	b.UpdatedAt = time.Now()
	return mapWriteError(t.tx.Save(b).Error)
}

func (t *txRepository) CountInStates(tripID uuid.UUID, states ...State) (int64, error) {
	var n int64
	err := t.tx.Model(&Booking{}).Where("trip_id = ? AND state IN ?", tripID, states).Count(&n).Error
	return n, err
}

func (t *txRepository) MoveAll(tripID uuid.UUID, from []State, to State, at time.Time, reason string) ([]Booking, error) {
	updates := map[string]interface{}{"state": to, "updated_at": at}
	switch to {
	case StateCancelled:
		updates["cancelled_at"] = at
		updates["cancellation_reason"] = reason
	case StateCheckedIn:
		updates["checked_in_at"] = at
	}
	return t.update(updates, "trip_id = ? AND state IN ?", tripID, from)
}

func (t *txRepository) ExpireDue(tripID uuid.UUID, now time.Time) ([]Booking, error) {
	return t.update(map[string]interface{}{"state": StateExpired, "updated_at": now},
		"trip_id = ? AND state = ? AND booking_type = ? AND reservation_deadline < ?",
		tripID, StateReserved, BookingTypeReservation, now)
}

func (t *txRepository) update(updates map[string]interface{}, where string, args ...interface{}) ([]Booking, error) {
	var moved []Booking
	err := t.tx.Model(&moved).
		Clauses(clause.Returning{}).
		Where(where, args...).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	for i := range moved {
		moved[i].refreshDue()
	}
	return moved, nil
}

func (t *txRepository) SaveTrip(trip *trips.Trip) error {
	trip.UpdatedAt = time.Now()
	return t.tx.Save(trip).Error
}

func (t *txRepository) PaymentByRef(ref string) (*payments.Payment, error) {
	var p payments.Payment
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_ref = ?", ref).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) CreatePayment(p *payments.Payment) error {
	return t.tx.Create(p).Error
}

func (t *txRepository) SavePayment(p *payments.Payment) error {
	return t.tx.Save(p).Error
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == "23505" && pgErr.ConstraintName == SeatIndexName:
		return apperrors.AdmissionError{Reason: apperrors.ReasonSeatTaken, Detail: "seat already assigned", Cause: err}
	case pgErr.Code == "23514" && pgErr.ConstraintName == AmountCheckName:
		return apperrors.Validation("amount", "payments would exceed the booking total")
	}
	return err
}

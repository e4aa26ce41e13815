package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/companies"
	"busline/internal/fleet"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/routes"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/tickets"
	"busline/internal/trips"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripReader is the slice of the trips service bookings depend on.
type TripReader interface {
	GetTrip(ctx context.Context, id uuid.UUID) (*trips.Trip, error)
	Graph(ctx context.Context, trip *trips.Trip) (*routes.Graph, error)
}

type BusReader interface {
	GetBus(ctx context.Context, id uuid.UUID) (*fleet.Bus, error)
	SeatOnBus(ctx context.Context, busID, seatID uuid.UUID) (*fleet.Seat, error)
}

type CompanySettings interface {
	companies.Config
	Settings(ctx context.Context, id uuid.UUID) (*companies.Settings, error)
}

type CityReader interface {
	ListCities(ctx context.Context) ([]routes.City, error)
}

type OperatorDirectory interface {
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Notifier delivers passenger messages. Calls happen after commit and may fail freely.
type Notifier interface {
	SendTicket(ctx context.Context, msg notifications.Message) error
	SendReservationHold(ctx context.Context, msg notifications.Message) error
	SendBookingCancelled(ctx context.Context, msg notifications.Message) error
	SendTripCancelled(ctx context.Context, msg notifications.Message) error
}

// Refunder pays money back for a cancelled booking, or for a single payment that
// arrived after the booking was closed.
type Refunder interface {
	IssueRefund(ctx context.Context, bookingID uuid.UUID, amount int64, reason string) error
	RefundPayment(ctx context.Context, bookingID uuid.UUID, transactionRef string, amount int64, reason string) error
}

// Broadcaster pushes availability to live subscribers of a trip.
type Broadcaster interface {
	Broadcast(snap *trips.AvailabilitySnapshot)
}

type Service interface {
	trips.Lifecycle

	CreateBooking(ctx context.Context, req CreateBookingRequest, soldBy *uuid.UUID) (*Booking, error)
	ReserveBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	CheckInBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error)
	RefundBooking(ctx context.Context, id uuid.UUID) (*Booking, error)

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByShareToken(ctx context.Context, token string) (*Booking, error)
	ListBookings(ctx context.Context, query ListQuery) (*PaginatedBookings, error)
	ShareBooking(ctx context.Context, id uuid.UUID) (*ShareLink, error)
	Ticket(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error)
	TicketByShareToken(ctx context.Context, token string) (*tickets.Ticket, error)

	// RecordPayment applies a completed payment and confirms the booking once nothing is due.
	RecordPayment(ctx context.Context, bookingID uuid.UUID, amount int64, transactionRef string, method payments.Method) (*payments.LedgerEntry, error)
	AmountDue(ctx context.Context, bookingID uuid.UUID) (int64, error)

	// RunExpirySweep expires every reservation whose deadline is before now.
	RunExpirySweep(ctx context.Context, now time.Time) (int, error)
	TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error)
}

type Dependencies struct {
	Repo        Repository
	Trips       TripReader
	Fleet       BusReader
	Companies   CompanySettings
	Cities      CityReader
	Operators   OperatorDirectory
	Notifier    Notifier
	Refunder    Refunder
	Broadcaster Broadcaster
	Locks       *TripLocks
	Config      config.BookingConfig

	ExpiryBatchSize int
	EffectTimeout   time.Duration
	Logger          *logger.Logger
}

type service struct {
	repo        Repository
	trips       TripReader
	fleet       BusReader
	companies   CompanySettings
	cities      CityReader
	operators   OperatorDirectory
	notifier    Notifier
	refunder    Refunder
	broadcaster Broadcaster
	locks       *TripLocks
	cfg         config.BookingConfig

	batchSize     int
	effectTimeout time.Duration
	log           *logger.Logger

	now   func() time.Time
	async func(func())
}

func NewService(deps Dependencies) Service {
	s := &service{
		repo:          deps.Repo,
		trips:         deps.Trips,
		fleet:         deps.Fleet,
		companies:     deps.Companies,
		cities:        deps.Cities,
		operators:     deps.Operators,
		notifier:      deps.Notifier,
		refunder:      deps.Refunder,
		broadcaster:   deps.Broadcaster,
		locks:         deps.Locks,
		cfg:           deps.Config,
		batchSize:     deps.ExpiryBatchSize,
		effectTimeout: deps.EffectTimeout,
		log:           deps.Logger,
		now:           time.Now,
		async:         func(f func()) { go f() },
	}
	if s.locks == nil {
		s.locks = NewTripLocks()
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.log == nil {
		s.log = logger.GetDefault().WithComponent("bookings")
	}
	if s.batchSize <= 0 {
		s.batchSize = 500
	}
	if s.effectTimeout <= 0 {
		s.effectTimeout = 10 * time.Second
	}
	return s
}

// withTrip is the per-trip critical section: the in-process lock, then the trip row
// lock inside a transaction. Side effects collected by fn run once the lock is released.
func (s *service) withTrip(ctx context.Context, tripID uuid.UUID, fn func(tx TxRepository, trip *trips.Trip, fx *effects) error) error {
	unlock, err := s.locks.Lock(ctx, tripID)
	if err != nil {
		return err
	}

	var fx effects
	err = s.repo.WithinTrip(ctx, tripID, func(tx TxRepository, trip *trips.Trip) error {
		fx = effects{}
		return fn(tx, trip, &fx)
	})
	unlock()
	if err != nil {
		return err
	}

	s.afterCommit(tripID, fx)
	return nil
}

// tripContext pre-reads the reference data an admission needs. Trips never change
// route or bus after creation, so reading these outside the lock is safe.
func (s *service) tripContext(ctx context.Context, tripID uuid.UUID) (*trips.Trip, *routes.Graph, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	graph, err := s.trips.Graph(ctx, trip)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load route graph: %w", err)
	}
	return trip, graph, nil
}

func (s *service) CreateBooking(ctx context.Context, req CreateBookingRequest, soldBy *uuid.UUID) (*Booking, error) {
	tripID, err := parseID("trip_id", req.TripID)
	if err != nil {
		return nil, err
	}
	board, err := parseID("boarding_stop_id", req.BoardingStopID)
	if err != nil {
		return nil, err
	}
	alight, err := parseID("alighting_stop_id", req.AlightingStopID)
	if err != nil {
		return nil, err
	}

	passenger := req.Passenger
	passenger.Normalize()
	if err := passenger.Validate(); err != nil {
		return nil, err
	}

	ticketType := req.TicketType
	if ticketType == "" {
		ticketType = TicketAdult
	}
	if !ticketType.IsValid() {
		return nil, apperrors.Validation("ticket_type", "must be adult, child or vip")
	}

	trip, graph, err := s.tripContext(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := graph.ValidateJourney(board, alight); err != nil {
		return nil, err
	}

	bus, err := s.fleet.GetBus(ctx, trip.BusID)
	if err != nil {
		return nil, err
	}
	maxKg := bus.MaxLuggagePerPassengerKg
	if maxKg == 0 {
		maxKg = s.cfg.DefaultMaxLuggageKg
	}
	if err := ValidateLuggage(req.LuggageWeightKg, maxKg); err != nil {
		return nil, err
	}

	var seatID *uuid.UUID
	if req.SeatID != "" {
		id, err := parseID("seat_id", req.SeatID)
		if err != nil {
			return nil, err
		}
		if _, err := s.fleet.SeatOnBus(ctx, trip.BusID, id); err != nil {
			return nil, err
		}
		seatID = &id
	}

	quote, err := QuoteFor(trip, graph, board, alight, ticketType, req.LuggageWeightKg, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ref, err := newBookingReference(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}
	booking := &Booking{
		ID:              uuid.New(),
		Reference:       ref,
		TripID:          trip.ID,
		BoardingStopID:  board,
		AlightingStopID: alight,
		SeatID:          seatID,
		State:           StateDraft,
		BookingType:     BookingTypePurchase,
		TicketType:      ticketType,
		LuggageWeightKg: req.LuggageWeightKg,
		TicketToken:     newTicketToken(),
		SoldBy:          soldBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	passenger.applyTo(booking)
	quote.apply(booking)

	err = s.withTrip(ctx, trip.ID, func(tx TxRepository, locked *trips.Trip, _ *effects) error {
		if err := trips.SaleError(locked, now); err != nil {
			return err
		}
		if seatID != nil {
			claims, err := tx.Claims(locked.ID)
			if err != nil {
				return fmt.Errorf("failed to load trip claims: %w", err)
			}
			if trips.NewInventory(locked.EffectiveQuota(), graph, claims).SeatTaken(*seatID) {
				return apperrors.Admission(apperrors.ReasonSeatTaken, "seat already assigned")
			}
		}
		return tx.Create(booking)
	})
	if err != nil {
		s.logDenied(ctx, trip.ID, err)
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), trip.ID.String(), booking.Reference)
	return booking, nil
}

func (s *service) ReserveBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	trip, graph, err := s.tripContext(ctx, current.TripID)
	if err != nil {
		return nil, err
	}
	hours, err := s.companies.ReservationHours(ctx, trip.CompanyID)
	if err != nil {
		return nil, err
	}
	hours = companies.ClampReservationHours(hours, s.cfg.MaxReservationHours)
	fee, err := s.companies.ReservationFee(ctx, trip.CompanyID)
	if err != nil {
		return nil, err
	}

	var booking *Booking
	err = s.withTrip(ctx, trip.ID, func(tx TxRepository, locked *trips.Trip, fx *effects) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		if b.State != StateDraft {
			return apperrors.StateConflict("booking", string(b.State), "reserve")
		}
		if err := validateHolder(b); err != nil {
			return err
		}

		now := s.now()
		if err := trips.SaleError(locked, now); err != nil {
			return err
		}
		if err := s.admit(tx, locked, graph, b); err != nil {
			return err
		}

		quote, err := QuoteFor(locked, graph, b.BoardingStopID, b.AlightingStopID, b.TicketType, b.LuggageWeightKg, fee)
		if err != nil {
			return err
		}
		if quote.Total < b.AmountPaid {
			return apperrors.Validation("amount", "payments already exceed the reservation total")
		}
		quote.apply(b)

		deadline := now.Add(time.Duration(hours) * time.Hour)
		b.BookingType = BookingTypeReservation
		b.ReservationDeadline = &deadline
		if err := transition(b, StateReserved, "reserve"); err != nil {
			return err
		}
		if err := tx.Save(b); err != nil {
			return err
		}

		fx.availability = true
		msg := s.message(b, locked)
		fx.add("reservation_hold", b.ID, func(ctx context.Context) error {
			return s.notifier.SendReservationHold(ctx, msg)
		})
		booking = b
		return nil
	})
	if err != nil {
		s.logDenied(ctx, trip.ID, err)
		return nil, err
	}

	s.log.LogBookingTransition(ctx, booking.ID.String(), booking.TripID.String(), string(StateDraft), string(StateReserved))
	return booking, nil
}

func (s *service) ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	_, graph, err := s.tripContext(ctx, current.TripID)
	if err != nil {
		return nil, err
	}

	var booking *Booking
	var from State
	err = s.withTrip(ctx, current.TripID, func(tx TxRepository, locked *trips.Trip, fx *effects) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		from = b.State
		if err := s.confirmLocked(tx, locked, graph, b, fx); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.logDenied(ctx, current.TripID, err)
		return nil, err
	}

	s.log.LogBookingTransition(ctx, booking.ID.String(), booking.TripID.String(), string(from), string(StateConfirmed))
	return booking, nil
}

// confirmLocked moves a draft or reserved booking to confirmed. A draft holds no seat
// yet, so it goes through admission first.
func (s *service) confirmLocked(tx TxRepository, trip *trips.Trip, graph *routes.Graph, b *Booking, fx *effects) error {
	if b.State != StateDraft && b.State != StateReserved {
		return apperrors.StateConflict("booking", string(b.State), "confirm")
	}
	switch trip.State {
	case trips.StateScheduled, trips.StateBoarding:
	case trips.StateDeparted, trips.StateArrived:
		return apperrors.Admission(apperrors.ReasonTripDeparted, "")
	default:
		return apperrors.Admission(apperrors.ReasonTripClosed, "trip is "+string(trip.State))
	}
	if due := b.Due(); due > 0 {
		return fmt.Errorf("%w: %d still due", apperrors.ErrPaymentIncomplete, due)
	}
	if b.State == StateDraft {
		if err := s.admit(tx, trip, graph, b); err != nil {
			return err
		}
		fx.availability = true
	}

	now := s.now()
	if err := transition(b, StateConfirmed, "confirm"); err != nil {
		return err
	}
	b.BookingType = BookingTypePurchase
	b.PaymentDate = &now
	b.ReservationDeadline = nil
	if err := tx.Save(b); err != nil {
		return err
	}

	msg := s.message(b, trip)
	fx.add("ticket", b.ID, func(ctx context.Context) error {
		return s.notifier.SendTicket(ctx, msg)
	})
	return nil
}

// admit checks b's claim against every other occupancy-counted booking of the trip.
func (s *service) admit(tx TxRepository, trip *trips.Trip, graph *routes.Graph, b *Booking) error {
	claims, err := tx.Claims(trip.ID)
	if err != nil {
		return fmt.Errorf("failed to load trip claims: %w", err)
	}
	inv := trips.NewInventory(trip.EffectiveQuota(), graph, claims).Excluding(b.ID)
	return inv.Admit(b.Claim())
}

func (s *service) CheckInBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.mutate(ctx, id, StateCheckedIn, "check_in", func(b *Booking, _ *trips.Trip, _ *effects) error {
		now := s.now()
		b.CheckedInAt = &now
		return nil
	})
}

func (s *service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	return s.mutate(ctx, id, StateCancelled, "cancel", func(b *Booking, trip *trips.Trip, fx *effects) error {
		now := s.now()
		b.CancelledAt = &now
		b.CancellationReason = reason
		fx.availability = true

		msg := s.message(b, trip)
		msg.Reason = reason
		fx.add("booking_cancelled", b.ID, func(ctx context.Context) error {
			return s.notifier.SendBookingCancelled(ctx, msg)
		})
		s.refund(fx, b, reason)
		return nil
	})
}

func (s *service) RefundBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.mutate(ctx, id, StateRefunded, "refund", nil)
}

// mutate runs a simple booking transition under the trip lock. Cancelling a boarded
// booking is reported as a conflict before the transition table is consulted.
func (s *service) mutate(ctx context.Context, id uuid.UUID, to State, action string, apply func(b *Booking, trip *trips.Trip, fx *effects) error) (*Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	var booking *Booking
	var from State
	err = s.withTrip(ctx, current.TripID, func(tx TxRepository, trip *trips.Trip, fx *effects) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		from = b.State
		if to == StateCancelled && b.State.Boarded() {
			return apperrors.StateConflict("booking", string(b.State), action)
		}
		if err := transition(b, to, action); err != nil {
			return err
		}
		if apply != nil {
			if err := apply(b, trip, fx); err != nil {
				return err
			}
		}
		if err := tx.Save(b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogBookingTransition(ctx, booking.ID.String(), booking.TripID.String(), string(from), string(to))
	return booking, nil
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking", id.String())
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (s *service) GetBookingByShareToken(ctx context.Context, token string) (*Booking, error) {
	booking, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("ticket", "")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (s *service) ListBookings(ctx context.Context, query ListQuery) (*PaginatedBookings, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	list, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return &PaginatedBookings{
		Bookings:   list,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int((total + int64(query.Limit) - 1) / int64(query.Limit)),
	}, nil
}

// ShareBooking returns the booking's public ticket link, creating it on first use.
func (s *service) ShareBooking(ctx context.Context, id uuid.UUID) (*ShareLink, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.HasIssuableTicket() {
		return nil, apperrors.StateConflict("booking", string(booking.State), "share")
	}
	if booking.ShareToken != nil {
		return s.shareLink(*booking.ShareToken), nil
	}

	token, err := newShareToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}
	assigned, err := s.repo.AssignShareToken(ctx, id, token)
	if err != nil {
		return nil, fmt.Errorf("failed to store share token: %w", err)
	}
	if assigned {
		return s.shareLink(token), nil
	}

	// lost a race with a concurrent share
	booking, err = s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ShareToken == nil {
		return nil, fmt.Errorf("share token for booking %s was not stored", id)
	}
	return s.shareLink(*booking.ShareToken), nil
}

func (s *service) shareLink(token string) *ShareLink {
	return &ShareLink{Token: token, URL: ShareURL(s.cfg.ShareBaseURL, token)}
}

func (s *service) AmountDue(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	return booking.Due(), nil
}

func (s *service) TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error) {
	revenue, err := s.repo.TripRevenue(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum trip revenue: %w", err)
	}
	return revenue, nil
}

func (s *service) logDenied(ctx context.Context, tripID uuid.UUID, err error) {
	if reason, ok := apperrors.AdmissionReasonOf(err); ok {
		s.log.LogAdmissionDenied(ctx, tripID.String(), string(reason))
	}
}

func validateHolder(b *Booking) error {
	if b.PassengerName == "" {
		return apperrors.Validation("passenger.name", "is required")
	}
	return validatePhone("passenger.phone", b.PassengerPhone)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation(field, "must be a valid UUID")
	}
	return id, nil
}

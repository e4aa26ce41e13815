package trips

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Reference string    `json:"reference" gorm:"size:40;uniqueIndex"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`
	RouteID   uuid.UUID `json:"route_id" gorm:"type:uuid;not null;index"`
	BusID     uuid.UUID `json:"bus_id" gorm:"type:uuid;not null;index"`

	DriverName  string `json:"driver_name" gorm:"size:120"`
	DriverPhone string `json:"driver_phone" gorm:"size:30"`

	DepartureTime   time.Time  `json:"departure_time" gorm:"not null;index"`
	ArrivalTime     time.Time  `json:"arrival_time"`
	ActualDeparture *time.Time `json:"actual_departure,omitempty"`
	ActualArrival   *time.Time `json:"actual_arrival,omitempty"`
	MeetingPoint    string     `json:"meeting_point" gorm:"size:255"`

	// TotalSeats is the bus capacity; BookingQuota of 0 means "use TotalSeats".
	TotalSeats   int `json:"total_seats" gorm:"not null;check:total_seats > 0"`
	BookingQuota int `json:"booking_quota" gorm:"not null;default:0;check:booking_quota >= 0"`

	Price                  int64 `json:"price" gorm:"not null;default:0;check:price >= 0"`
	VIPPrice               int64 `json:"vip_price" gorm:"default:0"`
	ChildPrice             int64 `json:"child_price" gorm:"default:0"`
	IncludedLuggageKg      int   `json:"included_luggage_kg" gorm:"default:0"`
	ExtraLuggagePricePerKg int64 `json:"extra_luggage_price_per_kg" gorm:"default:0"`

	State State `json:"state" gorm:"type:varchar(20);default:'draft';index"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Trip) TableName() string {
	return "trips"
}

// EffectiveQuota is the seat ceiling actually enforced.
func (t *Trip) EffectiveQuota() int {
	if t.BookingQuota > 0 {
		return t.BookingQuota
	}
	return t.TotalSeats
}

type CreateTripRequest struct {
	RouteID                string    `json:"route_id" binding:"required,uuid"`
	BusID                  string    `json:"bus_id" binding:"required,uuid"`
	DepartureTime          time.Time `json:"departure_time" binding:"required"`
	MeetingPoint           string    `json:"meeting_point" binding:"max=255"`
	DriverName             string    `json:"driver_name" binding:"max=120"`
	DriverPhone            string    `json:"driver_phone" binding:"omitempty,busphone"`
	BookingQuota           int       `json:"booking_quota" binding:"min=0"`
	Price                  int64     `json:"price" binding:"min=0"`
	VIPPrice               int64     `json:"vip_price" binding:"min=0"`
	ChildPrice             int64     `json:"child_price" binding:"min=0"`
	IncludedLuggageKg      int       `json:"included_luggage_kg" binding:"min=0"`
	ExtraLuggagePricePerKg *int64    `json:"extra_luggage_price_per_kg" binding:"omitempty,min=0"`
}

type TripListQuery struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=100"`
	RouteID         string `form:"route_id" binding:"omitempty,uuid"`
	CompanyID       string `form:"company_id" binding:"omitempty,uuid"`
	DepartureCityID string `form:"from" binding:"omitempty,uuid"`
	ArrivalCityID   string `form:"to" binding:"omitempty,uuid"`
	Date            string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	State           string `form:"state" binding:"omitempty,oneof=draft scheduled boarding departed arrived cancelled"`
}

type PaginatedTrips struct {
	Trips      []Trip `json:"trips"`
	TotalCount int64  `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

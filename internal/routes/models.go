package routes

import (
	"time"

	"github.com/google/uuid"
)

type City struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:120;uniqueIndex"`
	Code      string    `json:"code" gorm:"size:10"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (City) TableName() string {
	return "cities"
}

type RouteState string

const (
	RouteStateDraft     RouteState = "draft"
	RouteStateActive    RouteState = "active"
	RouteStateSuspended RouteState = "suspended"
)

type Route struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CompanyID       uuid.UUID   `json:"company_id" gorm:"type:uuid;not null;index"`
	Code            string      `json:"code" gorm:"size:40;uniqueIndex"`
	Name            string      `json:"name" gorm:"size:255"`
	DepartureCityID uuid.UUID   `json:"departure_city_id" gorm:"type:uuid;not null"`
	ArrivalCityID   uuid.UUID   `json:"arrival_city_id" gorm:"type:uuid;not null"`
	BasePrice       int64       `json:"base_price" gorm:"not null;default:0;check:base_price >= 0"`
	DurationMinutes int         `json:"duration_minutes" gorm:"default:0"`
	State           RouteState  `json:"state" gorm:"type:varchar(20);default:'draft'"`
	Stops           []RouteStop `json:"stops" gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Route) TableName() string {
	return "routes"
}

// RouteStop is an intermediate stop. Departure and arrival cities are not stored as stops.
type RouteStop struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	RouteID uuid.UUID `json:"route_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_route_stop_city"`
	CityID  uuid.UUID `json:"city_id" gorm:"type:uuid;not null;uniqueIndex:idx_route_stop_city"`
	// Sequence orders stops along the route and must be strictly increasing.
	Sequence                 int   `json:"sequence" gorm:"not null"`
	DurationFromStartMinutes int   `json:"duration_from_start_minutes" gorm:"default:0"`
	PriceFromStart           int64 `json:"price_from_start" gorm:"default:0;check:price_from_start >= 0"`
	IsBoardingPoint          bool  `json:"is_boarding_point" gorm:"default:true"`
	IsDropoffPoint           bool  `json:"is_dropoff_point" gorm:"default:true"`
}

func (RouteStop) TableName() string {
	return "route_stops"
}

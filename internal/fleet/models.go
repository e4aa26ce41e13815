package fleet

import (
	"time"

	"github.com/google/uuid"
)

type SeatType string

const (
	SeatTypeStandard SeatType = "standard"
	SeatTypeVIP      SeatType = "vip"
)

type Bus struct {
	ID                       uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CompanyID                uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`
	Name                     string    `json:"name" gorm:"not null;size:120"`
	PlateNumber              string    `json:"plate_number" gorm:"not null;size:30;uniqueIndex"`
	SeatCapacity             int       `json:"seat_capacity" gorm:"not null;check:seat_capacity > 0"`
	VIPSeatNumbers           string    `json:"vip_seat_numbers" gorm:"size:255"`
	MaxLuggagePerPassengerKg int       `json:"max_luggage_per_passenger_kg" gorm:"default:0"`
	ExtraLuggagePricePerKg   int64     `json:"extra_luggage_price_per_kg" gorm:"default:0"`
	Active                   bool      `json:"active" gorm:"default:true"`
	Seats                    []Seat    `json:"seats,omitempty" gorm:"foreignKey:BusID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Bus) TableName() string {
	return "buses"
}

type Seat struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BusID  uuid.UUID `json:"bus_id" gorm:"type:uuid;not null;uniqueIndex:idx_bus_seat_number"`
	Number int       `json:"number" gorm:"not null;uniqueIndex:idx_bus_seat_number"`
	Type   SeatType  `json:"type" gorm:"type:varchar(20);default:'standard'"`
}

func (Seat) TableName() string {
	return "seats"
}

type CreateBusRequest struct {
	CompanyID                string `json:"company_id" binding:"required,uuid"`
	Name                     string `json:"name" binding:"required,min=2,max=120"`
	PlateNumber              string `json:"plate_number" binding:"required,min=2,max=30"`
	SeatCapacity             int    `json:"seat_capacity" binding:"required,min=1,max=120"`
	VIPSeatNumbers           string `json:"vip_seat_numbers" binding:"omitempty,max=255"`
	MaxLuggagePerPassengerKg int    `json:"max_luggage_per_passenger_kg" binding:"min=0"`
	ExtraLuggagePricePerKg   int64  `json:"extra_luggage_price_per_kg" binding:"min=0"`
}

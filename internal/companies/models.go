package companies

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinReservationHours     = 1
	MaxReservationHours     = 24
	DefaultReservationHours = 24
)

type Company struct {
	ID                       uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name                     string    `json:"name" gorm:"not null;size:255;uniqueIndex"`
	Phone                    string    `json:"phone" gorm:"size:30"`
	Email                    string    `json:"email" gorm:"size:255"`
	Currency                 string    `json:"currency" gorm:"size:3;default:'XOF'"`
	ReservationDurationHours int       `json:"reservation_duration_hours" gorm:"not null;default:24;check:reservation_duration_hours BETWEEN 1 AND 24"`
	ReservationFee           int64     `json:"reservation_fee" gorm:"not null;default:0;check:reservation_fee >= 0"`
	AllowOnlinePayment       bool      `json:"allow_online_payment" gorm:"default:true"`
	Active                   bool      `json:"active" gorm:"default:true"`
	CreatedAt                time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}

// Settings is the subset of a company read on every admission.
type Settings struct {
	CompanyID        uuid.UUID `json:"company_id"`
	ReservationHours int       `json:"reservation_hours"`
	ReservationFee   int64     `json:"reservation_fee"`
	Currency         string    `json:"currency"`
}

type CreateCompanyRequest struct {
	Name                     string `json:"name" binding:"required,min=2,max=255"`
	Phone                    string `json:"phone" binding:"omitempty,busphone"`
	Email                    string `json:"email" binding:"omitempty,email"`
	Currency                 string `json:"currency" binding:"omitempty,len=3"`
	ReservationDurationHours int    `json:"reservation_duration_hours" binding:"omitempty,min=1,max=24"`
	ReservationFee           int64  `json:"reservation_fee" binding:"min=0"`
}

type UpdateSettingsRequest struct {
	ReservationDurationHours *int   `json:"reservation_duration_hours" binding:"omitempty,min=1,max=24"`
	ReservationFee           *int64 `json:"reservation_fee" binding:"omitempty,min=0"`
}

// ClampReservationHours keeps a configured hold duration inside [1, max].
func ClampReservationHours(hours, max int) int {
	if max <= 0 || max > MaxReservationHours {
		max = MaxReservationHours
	}
	if hours < MinReservationHours {
		return DefaultReservationHours
	}
	if hours > max {
		return max
	}
	return hours
}

package bookings

import (
	"strings"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/validation"
)

var emailValidator = validation.New()

// Passenger is who travels, and who paid when that is someone else.
type Passenger struct {
	Name       string `json:"name" binding:"required,max=120"`
	Phone      string `json:"phone" binding:"required,busphone"`
	Email      string `json:"email" binding:"omitempty,email,max=120"`
	IsForOther bool   `json:"is_for_other"`
	BuyerName  string `json:"buyer_name" binding:"max=120"`
	BuyerPhone string `json:"buyer_phone" binding:"omitempty,busphone"`
}

// Normalize trims whitespace and lowercases the email.
func (p *Passenger) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.BuyerName = strings.TrimSpace(p.BuyerName)
	p.BuyerPhone = strings.TrimSpace(p.BuyerPhone)
}

// Validate enforces the passenger rules independently of HTTP binding.
func (p *Passenger) Validate() error {
	if p.Name == "" {
		return apperrors.Validation("passenger.name", "is required")
	}
	if err := validatePhone("passenger.phone", p.Phone); err != nil {
		return err
	}
	if p.Email != "" {
		if err := emailValidator.Var(p.Email, "email"); err != nil {
			return apperrors.Validation("passenger.email", "is not a valid email address")
		}
	}
	if p.IsForOther {
		if p.BuyerName == "" {
			return apperrors.Validation("passenger.buyer_name", "is required when buying for someone else")
		}
		if p.BuyerPhone != "" && !validation.IsPhone(p.BuyerPhone) {
			return apperrors.Validation("passenger.buyer_phone", "is not a valid phone number")
		}
	}
	return nil
}

func validatePhone(field, phone string) error {
	if phone == "" {
		return apperrors.Validation(field, "is required")
	}
	if !validation.IsPhone(phone) {
		return apperrors.Validation(field, "is not a valid phone number")
	}
	return nil
}

func (p Passenger) applyTo(b *Booking) {
	b.PassengerName = p.Name
	b.PassengerPhone = p.Phone
	b.PassengerEmail = p.Email
	b.IsForOther = p.IsForOther
	b.BuyerName = p.BuyerName
	b.BuyerPhone = p.BuyerPhone
}

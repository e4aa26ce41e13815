package bookings

// CreateBookingRequest opens a draft booking on a trip segment.
type CreateBookingRequest struct {
	TripID          string     `json:"trip_id" binding:"required,uuid"`
	BoardingStopID  string     `json:"boarding_stop_id" binding:"required,uuid"`
	AlightingStopID string     `json:"alighting_stop_id" binding:"required,uuid"`
	SeatID          string     `json:"seat_id" binding:"omitempty,uuid"`
	TicketType      TicketType `json:"ticket_type" binding:"omitempty,oneof=adult child vip"`
	LuggageWeightKg int        `json:"luggage_weight_kg" binding:"min=0"`
	Passenger       Passenger  `json:"passenger" binding:"required"`
}

type ListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	TripID    string `form:"trip_id" binding:"omitempty,uuid"`
	State     string `form:"state" binding:"omitempty,oneof=draft reserved confirmed checked_in completed cancelled expired refunded no_show"`
	Phone     string `form:"phone"`
	Reference string `form:"reference"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

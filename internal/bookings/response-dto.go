package bookings

type PaginatedBookings struct {
	Bookings   []Booking `json:"bookings"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// ShareLink is the public address of a booking's e-ticket.
type ShareLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type SweepResult struct {
	Expired int `json:"expired"`
}

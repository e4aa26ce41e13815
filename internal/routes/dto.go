package routes

type CreateCityRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
	Code string `json:"code" binding:"omitempty,max=10"`
}

type CreateRouteRequest struct {
	CompanyID       string             `json:"company_id" binding:"required,uuid"`
	DepartureCityID string             `json:"departure_city_id" binding:"required,uuid"`
	ArrivalCityID   string             `json:"arrival_city_id" binding:"required,uuid"`
	BasePrice       int64              `json:"base_price" binding:"min=0"`
	DurationMinutes int                `json:"duration_minutes" binding:"min=0"`
	Stops           []RouteStopRequest `json:"stops" binding:"dive"`
}

type RouteStopRequest struct {
	CityID                   string `json:"city_id" binding:"required,uuid"`
	Sequence                 int    `json:"sequence" binding:"min=0"`
	DurationFromStartMinutes int    `json:"duration_from_start_minutes" binding:"min=0"`
	PriceFromStart           int64  `json:"price_from_start" binding:"min=0"`
	IsBoardingPoint          *bool  `json:"is_boarding_point"`
	IsDropoffPoint           *bool  `json:"is_dropoff_point"`
}

type ChangeRouteStateRequest struct {
	State string `json:"state" binding:"required,oneof=draft active suspended"`
}

// StopView is one entry of a route's ordered stop list.
type StopView struct {
	CityID            string `json:"city_id"`
	Index             int    `json:"index"`
	OffsetMinutes     int    `json:"offset_minutes"`
	PriceFromStart    int64  `json:"price_from_start"`
	CanBoard          bool   `json:"can_board"`
	CanAlight         bool   `json:"can_alight"`
}

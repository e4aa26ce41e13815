package routes

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	CreateCity(ctx context.Context, req CreateCityRequest) (*City, error)
	ListCities(ctx context.Context) ([]City, error)

	CreateRoute(ctx context.Context, req CreateRouteRequest) (*Route, error)
	GetRoute(ctx context.Context, id uuid.UUID) (*Route, error)
	ListRoutes(ctx context.Context, companyID *uuid.UUID, state RouteState) ([]Route, error)
	ChangeState(ctx context.Context, id uuid.UUID, state RouteState) (*Route, error)

	// Graph returns the route's stop graph, served from cache when possible.
	Graph(ctx context.Context, routeID uuid.UUID) (*Graph, error)
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}
	return &service{
		repo:  repo,
		cache: cacheService,
		log:   logger.GetDefault().WithComponent("routes"),
	}
}

func (s *service) CreateCity(ctx context.Context, req CreateCityRequest) (*City, error) {
	city := &City{ID: uuid.New(), Name: req.Name, Code: req.Code}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_CITIES_ALL); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate city cache", "error", err)
	}
	return city, nil
}

func (s *service) ListCities(ctx context.Context) ([]City, error) {
	var cities []City
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_CITIES_ALL, constants.TTL_CITIES_ALL, &cities, func() (interface{}, error) {
		return s.repo.ListCities(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

func (s *service) CreateRoute(ctx context.Context, req CreateRouteRequest) (*Route, error) {
	companyID, err := parseID("company_id", req.CompanyID)
	if err != nil {
		return nil, err
	}
	departureID, err := parseID("departure_city_id", req.DepartureCityID)
	if err != nil {
		return nil, err
	}
	arrivalID, err := parseID("arrival_city_id", req.ArrivalCityID)
	if err != nil {
		return nil, err
	}
	route := &Route{
		ID:              uuid.New(),
		CompanyID:       companyID,
		DepartureCityID: departureID,
		ArrivalCityID:   arrivalID,
		BasePrice:       req.BasePrice,
		DurationMinutes: req.DurationMinutes,
		State:           RouteStateDraft,
	}
	for i, st := range req.Stops {
		cityID, err := parseID(fmt.Sprintf("stops[%d].city_id", i), st.CityID)
		if err != nil {
			return nil, err
		}
		stop := RouteStop{
			ID:                       uuid.New(),
			RouteID:                  route.ID,
			CityID:                   cityID,
			Sequence:                 st.Sequence,
			DurationFromStartMinutes: st.DurationFromStartMinutes,
			PriceFromStart:           st.PriceFromStart,
			IsBoardingPoint:          true,
			IsDropoffPoint:           true,
		}
		if st.IsBoardingPoint != nil {
			stop.IsBoardingPoint = *st.IsBoardingPoint
		}
		if st.IsDropoffPoint != nil {
			stop.IsDropoffPoint = *st.IsDropoffPoint
		}
		route.Stops = append(route.Stops, stop)
	}

	// NewGraph enforces the route invariants before anything is stored.
	if _, err := NewGraph(route); err != nil {
		return nil, err
	}

	departure, err := s.repo.GetCity(ctx, route.DepartureCityID)
	if err != nil {
		return nil, s.notFound("city", route.DepartureCityID, err)
	}
	arrival, err := s.repo.GetCity(ctx, route.ArrivalCityID)
	if err != nil {
		return nil, s.notFound("city", route.ArrivalCityID, err)
	}
	route.Name = departure.Name + " - " + arrival.Name
	route.Code = fmt.Sprintf("%s-%s-%s", cityCode(departure), cityCode(arrival), route.ID.String()[:4])

	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return route, nil
}

func (s *service) GetRoute(ctx context.Context, id uuid.UUID) (*Route, error) {
	route, err := s.repo.GetRoute(ctx, id)
	if err != nil {
		return nil, s.notFound("route", id, err)
	}
	return route, nil
}

func (s *service) ListRoutes(ctx context.Context, companyID *uuid.UUID, state RouteState) ([]Route, error) {
	routes, err := s.repo.ListRoutes(ctx, companyID, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

func (s *service) ChangeState(ctx context.Context, id uuid.UUID, state RouteState) (*Route, error) {
	if err := s.repo.UpdateRouteState(ctx, id, state); err != nil {
		return nil, s.notFound("route", id, err)
	}
	if err := s.cache.Delete(ctx, constants.BuildRouteGraphKey(id.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate route graph", "route_id", id, "error", err)
	}
	return s.GetRoute(ctx, id)
}

func (s *service) Graph(ctx context.Context, routeID uuid.UUID) (*Graph, error) {
	var graph Graph
	err := s.cache.GetOrSet(ctx, constants.BuildRouteGraphKey(routeID.String()), constants.TTL_ROUTE_GRAPH, &graph, func() (interface{}, error) {
		route, err := s.repo.GetRoute(ctx, routeID)
		if err != nil {
			return nil, s.notFound("route", routeID, err)
		}
		return NewGraph(route)
	})
	if err != nil {
		return nil, err
	}
	return &graph, nil
}

func (s *service) notFound(entity string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity, id.String())
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.Validation(field, "must be a UUID")
	}
	return id, nil
}

func cityCode(c *City) string {
	if c.Code != "" {
		return c.Code
	}
	if len(c.Name) >= 3 {
		return c.Name[:3]
	}
	return c.Name
}

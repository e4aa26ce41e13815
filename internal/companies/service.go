package companies

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

// Config answers the per-company booking settings the admission path needs.
type Config interface {
	ReservationHours(ctx context.Context, companyID uuid.UUID) (int, error)
	ReservationFee(ctx context.Context, companyID uuid.UUID) (int64, error)
}

type Service interface {
	Config

	Create(ctx context.Context, req CreateCompanyRequest) (*Company, error)
	Get(ctx context.Context, id uuid.UUID) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req UpdateSettingsRequest) (*Company, error)
	Settings(ctx context.Context, id uuid.UUID) (*Settings, error)
}

type service struct {
	repo     Repository
	cache    cache.Service
	maxHours int
	log      *logger.Logger
}

// NewService creates the company service. maxHours caps every company's reservation window.
func NewService(repo Repository, cacheService cache.Service, maxHours int) Service {
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}
	return &service{
		repo:     repo,
		cache:    cacheService,
		maxHours: maxHours,
		log:      logger.GetDefault().WithComponent("companies"),
	}
}

func (s *service) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	company := &Company{
		ID:                       uuid.New(),
		Name:                     req.Name,
		Phone:                    req.Phone,
		Email:                    req.Email,
		Currency:                 req.Currency,
		ReservationDurationHours: req.ReservationDurationHours,
		ReservationFee:           req.ReservationFee,
		AllowOnlinePayment:       true,
		Active:                   true,
	}
	if company.Currency == "" {
		company.Currency = "XOF"
	}
	if company.ReservationDurationHours == 0 {
		company.ReservationDurationHours = DefaultReservationHours
	}

	if err := s.repo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("company", id.String())
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func (s *service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateSettings(ctx context.Context, id uuid.UUID, req UpdateSettingsRequest) (*Company, error) {
	updates := map[string]interface{}{}
	if req.ReservationDurationHours != nil {
		updates["reservation_duration_hours"] = *req.ReservationDurationHours
	}
	if req.ReservationFee != nil {
		updates["reservation_fee"] = *req.ReservationFee
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("company", id.String())
			}
			return nil, fmt.Errorf("failed to update company: %w", err)
		}
		if err := s.cache.Delete(ctx, constants.BuildCompanyConfigKey(id.String())); err != nil {
			s.log.WarnContext(ctx, "failed to invalidate company settings", "company_id", id, "error", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Settings(ctx context.Context, id uuid.UUID) (*Settings, error) {
	var settings Settings
	err := s.cache.GetOrSet(ctx, constants.BuildCompanyConfigKey(id.String()), constants.TTL_COMPANY_CONFIG, &settings, func() (interface{}, error) {
		company, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return Settings{
			CompanyID:        company.ID,
			ReservationHours: company.ReservationDurationHours,
			ReservationFee:   company.ReservationFee,
			Currency:         company.Currency,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	settings.ReservationHours = ClampReservationHours(settings.ReservationHours, s.maxHours)
	return &settings, nil
}

func (s *service) ReservationHours(ctx context.Context, companyID uuid.UUID) (int, error) {
	settings, err := s.Settings(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return settings.ReservationHours, nil
}

func (s *service) ReservationFee(ctx context.Context, companyID uuid.UUID) (int64, error) {
	settings, err := s.Settings(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return settings.ReservationFee, nil
}

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/users"
	"busline/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("operator account is disabled")
	ErrEmailTaken         = errors.New("an operator with this email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const issuer = "busline"

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*OperatorResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, operatorID uuid.UUID, req ChangePasswordRequest) error
	Me(ctx context.Context, operatorID uuid.UUID) (*OperatorResponse, error)
	ListOperators(ctx context.Context, query OperatorQuery) ([]OperatorResponse, error)
	// SetActive enables or disables an account. Admins cannot disable themselves.
	SetActive(ctx context.Context, actorID, operatorID uuid.UUID, active bool) (*OperatorResponse, error)
	ValidateToken(token string) (*JWTClaims, error)
}

type service struct {
	repo   Repository
	jwt    config.JWTConfig
	log    *logger.Logger
	now    func() time.Time
	hashFn func(password []byte) ([]byte, error)
}

func NewService(repo Repository, cfg *config.Config) Service {
	return &service{
		repo: repo,
		jwt:  cfg.JWT,
		log:  logger.GetDefault().WithComponent("auth"),
		now:  time.Now,
		hashFn: func(password []byte) ([]byte, error) {
			return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*OperatorResponse, error) {
	role := users.RoleAgent
	if req.Role != "" {
		if !users.IsValidRole(req.Role) {
			return nil, apperrors.Validation("role", "must be AGENT or ADMIN")
		}
		role = users.Role(req.Role)
	}

	var companyID *uuid.UUID
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return nil, apperrors.Validation("company_id", "must be a UUID")
		}
		companyID = &id
	}
	if role == users.RoleAgent && companyID == nil {
		return nil, apperrors.Validation("company_id", "agents must belong to a company")
	}

	email := normalizeEmail(req.Email)
	taken, err := s.repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hashFn([]byte(req.Password))
	if err != nil {
		return nil, err
	}

	user := &users.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Password:  string(hash),
		Role:      role,
		CompanyID: companyID,
		Active:    true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("operator registered", "operator_id", user.ID.String(), "role", string(role))
	resp := toOperatorResponse(user)
	return &resp, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.repo.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.log.Warn("failed to record login", "operator_id", user.ID.String(), "error", err.Error())
	} else {
		user.LastLoginAt = &now
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.log.LogAuthSuccess(ctx, user.ID.String(), "password")
	return &AuthResponse{Operator: toOperatorResponse(user), TokenPair: *pair}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenRefresh {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// role, company and status are re-read so revocations apply at the next refresh
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return s.issue(user)
}

func (s *service) ChangePassword(ctx context.Context, operatorID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.repo.FindByID(ctx, operatorID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hashFn([]byte(req.NewPassword))
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, operatorID, map[string]interface{}{"password": string(hash)})
}

func (s *service) Me(ctx context.Context, operatorID uuid.UUID) (*OperatorResponse, error) {
	user, err := s.repo.FindByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	resp := toOperatorResponse(user)
	return &resp, nil
}

func (s *service) ListOperators(ctx context.Context, query OperatorQuery) ([]OperatorResponse, error) {
	filter := OperatorFilter{Role: users.Role(query.Role), Active: query.Active}
	if query.CompanyID != "" {
		id, err := uuid.Parse(query.CompanyID)
		if err != nil {
			return nil, apperrors.Validation("company_id", "must be a UUID")
		}
		filter.CompanyID = &id
	}

	operators, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]OperatorResponse, len(operators))
	for i := range operators {
		out[i] = toOperatorResponse(&operators[i])
	}
	return out, nil
}

func (s *service) SetActive(ctx context.Context, actorID, operatorID uuid.UUID, active bool) (*OperatorResponse, error) {
	if !active && actorID == operatorID {
		return nil, apperrors.Validation("id", "cannot disable your own account")
	}
	if err := s.repo.Update(ctx, operatorID, map[string]interface{}{"active": active}); err != nil {
		return nil, err
	}
	s.log.Info("operator status changed", "operator_id", operatorID.String(), "active", active, "by", actorID.String())
	return s.Me(ctx, operatorID)
}

func (s *service) issue(user *users.User) (*TokenPair, error) {
	now := s.now()
	base := JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
	}
	if user.CompanyID != nil {
		base.CompanyID = user.CompanyID.String()
	}

	access, err := s.sign(base, tokenAccess, now, s.jwt.JWTExpiresIn)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(base, tokenRefresh, now, s.jwt.RefreshExpiresIn)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) sign(claims JWTClaims, kind string, now time.Time, ttl time.Duration) (string, error) {
	claims.Type = kind
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
		Subject:   claims.UserID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwt.Secret))
}

func (s *service) ValidateToken(token string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwt.Secret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

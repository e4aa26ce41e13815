package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*users.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[uuid.UUID]*users.User{}}
}

func (r *memRepo) Create(_ context.Context, u *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("operator", email)
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.NotFound("operator", id.String())
}

func (r *memRepo) List(_ context.Context, filter OperatorFilter) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []users.User
	for _, u := range r.users {
		if filter.CompanyID != nil && (u.CompanyID == nil || *u.CompanyID != *filter.CompanyID) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *memRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memRepo) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("operator", id.String())
	}
	for k, v := range fields {
		switch k {
		case "password":
			u.Password = v.(string)
		case "active":
			u.Active = v.(bool)
		case "last_login_at":
			at := v.(time.Time)
			u.LastLoginAt = &at
		}
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{
		Secret:           "test-secret",
		JWTExpiresIn:     15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
	}}
}

func newTestService(repo Repository) *service {
	svc := NewService(repo, testConfig()).(*service)
	svc.hashFn = func(p []byte) ([]byte, error) { return bcrypt.GenerateFromPassword(p, bcrypt.MinCost) }
	return svc
}

var companyID = uuid.MustParse("7f8d2c1e-3a4b-4c5d-8e9f-0a1b2c3d4e5f")

func agentRequest(email string) RegisterRequest {
	return RegisterRequest{FirstName: "Awa", LastName: "Kone", Email: email, Password: "secret1", CompanyID: companyID.String()}
}

func TestRegister(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	op, err := svc.Register(ctx, agentRequest(" Awa@Example.com "))
	if err != nil {
		t.Fatal(err)
	}
	if op.Role != users.RoleAgent || !op.Active || op.CompanyID != companyID.String() {
		t.Fatalf("unexpected operator %+v", op)
	}
	if op.Email != "awa@example.com" {
		t.Fatalf("email should be normalised, got %q", op.Email)
	}

	if _, err := svc.Register(ctx, agentRequest("awa@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	noCompany := agentRequest("moussa@example.com")
	noCompany.CompanyID = ""
	if _, err := svc.Register(ctx, noCompany); !apperrors.IsValidation(err) {
		t.Fatalf("agents need a company, got %v", err)
	}

	admin := noCompany
	admin.Role = string(users.RoleAdmin)
	op, err = svc.Register(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if op.Role != users.RoleAdmin || op.CompanyID != "" {
		t.Fatalf("unexpected admin %+v", op)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, agentRequest("awa@example.com")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "awa@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: "awa@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Operator.LastLoginAt == nil {
		t.Fatal("login time should be recorded")
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Type != tokenAccess || claims.CompanyID != companyID.String() || claims.Role != "AGENT" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.Refresh(ctx, resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
	pair, err := svc.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry %d", pair.ExpiresIn)
	}
}

func TestDisabledOperator(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	adminReq := agentRequest("admin@example.com")
	adminReq.Role = string(users.RoleAdmin)
	admin, _ := svc.Register(ctx, adminReq)
	agent, _ := svc.Register(ctx, agentRequest("awa@example.com"))
	adminID, agentID := uuid.MustParse(admin.ID), uuid.MustParse(agent.ID)

	session, err := svc.Login(ctx, LoginRequest{Email: "awa@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetActive(ctx, adminID, adminID, false); !apperrors.IsValidation(err) {
		t.Fatalf("admins cannot disable themselves, got %v", err)
	}
	op, err := svc.SetActive(ctx, adminID, agentID, false)
	if err != nil {
		t.Fatal(err)
	}
	if op.Active {
		t.Fatal("operator should be disabled")
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "awa@example.com", Password: "secret1"}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected disabled, got %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("refresh should stop working once disabled, got %v", err)
	}

	inactive := false
	list, err := svc.ListOperators(ctx, OperatorQuery{Active: &inactive})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != agent.ID {
		t.Fatalf("unexpected operators %+v", list)
	}

	if _, err := svc.SetActive(ctx, adminID, uuid.New(), true); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(newMemRepo())
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	pair, err := svc.issue(&users.User{ID: uuid.New(), Email: "a@b.co", Role: users.RoleAgent})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	op, _ := svc.Register(ctx, agentRequest("awa@example.com"))
	id := uuid.MustParse(op.ID)

	if err := svc.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "secret2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "awa@example.com", Password: "secret2"}); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	name, err := NewOperatorDirectory(repo).DisplayName(ctx, id)
	if err != nil || name != "Awa Kone" {
		t.Fatalf("unexpected display name %q (%v)", name, err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/logger"
)

const revokedTokenKey = "revoked_token:"

type AdminRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type PropertyManagerRepository interface {
	FindByID(ctx context.Context, id int64) (*model.PropertyManager, error)
	FindByEmail(ctx context.Context, email string) (*model.PropertyManager, error)
}

// TokenStore keeps revoked token ids until they would have expired anyway.
type TokenStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Exist(ctx context.Context, key string) (int64, error)
}

type Session struct {
	Token    string    `json:"token"`
	UserType auth.Role `json:"user_type"`
	User     any       `json:"user"`
}

type IdentityService struct {
	landlords LandlordRepository
	tenants   TenantRepository
	admins    AdminRepository
	managers  PropertyManagerRepository
	tokens    *auth.Manager
	revoked   TokenStore
	now       func() time.Time
}

func NewIdentityService(landlords LandlordRepository, tenants TenantRepository, admins AdminRepository,
	managers PropertyManagerRepository, tokens *auth.Manager, revoked TokenStore) *IdentityService {
	return &IdentityService{
		landlords: landlords,
		tenants:   tenants,
		admins:    admins,
		managers:  managers,
		tokens:    tokens,
		revoked:   revoked,
		now:       time.Now,
	}
}

// Login checks the credentials against the account table of the requested role.
// An empty user type means landlord.
func (s *IdentityService) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role := auth.Role(strings.TrimSpace(req.UserType))
	if role == "" {
		role = auth.RoleLandlord
	}
	if role == auth.RoleAdmin || !role.Valid() {
		return nil, model.Invalid("user_type", "The selected user type is invalid.")
	}
	return s.login(ctx, role, req.Email, req.Password)
}

func (s *IdentityService) AdminLogin(ctx context.Context, req model.LoginRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.login(ctx, auth.RoleAdmin, req.Email, req.Password)
}

func (s *IdentityService) login(ctx context.Context, role auth.Role, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, user, hash, err := s.account(ctx, role, email)
	if errors.Is(err, model.ErrNotFound) || (err == nil && !auth.CheckPassword(hash, password)) {
		logger.Warn("login failed", "role", role, "email", email)
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(*p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	logger.Info("login", "role", role, "account_id", p.ID)
	return &Session{Token: token, UserType: role, User: user}, nil
}

func (s *IdentityService) account(ctx context.Context, role auth.Role, email string) (*auth.Principal, any, string, error) {
	switch role {
	case auth.RoleLandlord:
		l, err := s.landlords.FindByEmail(ctx, email)
		if err != nil {
			return nil, nil, "", err
		}
		return &auth.Principal{Role: role, ID: l.ID, Email: l.Email, Name: l.Name}, l, l.PasswordHash, nil
	case auth.RoleTenant:
		t, err := s.tenants.FindByEmail(ctx, email)
		if err != nil {
			return nil, nil, "", err
		}
		return &auth.Principal{Role: role, ID: t.ID, Email: t.Email, Name: t.Name}, t, t.PasswordHash, nil
	case auth.RoleAdmin:
		a, err := s.admins.FindByEmail(ctx, email)
		if err != nil {
			return nil, nil, "", err
		}
		return &auth.Principal{Role: role, ID: a.ID, Email: a.Email, Name: a.Name}, a, a.PasswordHash, nil
	case auth.RolePropertyManager:
		m, err := s.managers.FindByEmail(ctx, email)
		if err != nil {
			return nil, nil, "", err
		}
		return &auth.Principal{Role: role, ID: m.ID, Email: m.Email, Name: m.Name}, m, m.PasswordHash, nil
	}
	return nil, nil, "", fmt.Errorf("role %q: %w", role, model.ErrInvalidCredentials)
}

// Authenticate parses a bearer token and rejects revoked ones.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		return nil, model.ErrUnauthorized
	}
	if s.revoked != nil && p.TokenID != "" {
		n, err := s.revoked.Exist(ctx, revokedTokenKey+p.TokenID)
		if err != nil {
			logger.Warn("token revocation check failed", "error", err)
		} else if n > 0 {
			return nil, model.ErrUnauthorized
		}
	}
	return p, nil
}

// Logout revokes the token id until the token's own expiry; without redis it is a no-op.
func (s *IdentityService) Logout(ctx context.Context, p *auth.Principal) error {
	if s.revoked == nil || p == nil || p.TokenID == "" {
		return nil
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedTokenKey+p.TokenID, []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	logger.Info("logout", "role", p.Role, "account_id", p.ID)
	return nil
}

// CurrentUser loads the account record behind p.
func (s *IdentityService) CurrentUser(ctx context.Context, p *auth.Principal) (any, error) {
	switch p.Role {
	case auth.RoleLandlord:
		return s.landlords.FindByID(ctx, p.ID)
	case auth.RoleTenant:
		return s.tenants.FindByID(ctx, p.ID)
	case auth.RoleAdmin:
		return s.admins.FindByID(ctx, p.ID)
	case auth.RolePropertyManager:
		return s.managers.FindByID(ctx, p.ID)
	}
	return nil, model.ErrUnauthorized
}

// Package auth issues and verifies per-role session tokens and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleLandlord        Role = "landlord"
	RoleTenant          Role = "tenant"
	RoleAdmin           Role = "admin"
	RolePropertyManager Role = "property_manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLandlord, RoleTenant, RoleAdmin, RolePropertyManager:
		return true
	}
	return false
}

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	Role      Role      `json:"role"`
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue signs an HS256 token for p.
func (m *Manager) Issue(p Principal) (string, error) {
	if !p.Role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", p.Role)
	}
	now := m.now()
	claims := Claims{
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenStr string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	p := &Principal{
		Role:    claims.Role,
		ID:      id,
		Email:   claims.Email,
		Name:    claims.Name,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
	"honeypos/internal/validate"
)

type Claims struct {
	UserID     string      `json:"user_id"`
	Role       domain.Role `json:"role"`
	LocationID string      `json:"location_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Store  *repos.Store
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthService(store *repos.Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Store: store, Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func findUserByEmail(users []domain.User, email string) (domain.User, bool) {
	i := slices.IndexFunc(users, func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
	if i < 0 {
		return domain.User{}, false
	}
	return users[i], true
}

// Login checks the password and returns a signed token for the user.
// Unknown, inactive and mismatched accounts all yield ErrBadCreds.
func (s *AuthService) Login(email, password string) (string, domain.User, error) {
	u, ok := findUserByEmail(s.Store.Snapshot().Users, strings.TrimSpace(email))
	if !ok || !u.IsActive {
		return "", domain.User{}, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", domain.User{}, ErrBadCreds
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return "", domain.User{}, err
	}
	return tok, u, nil
}

func (s *AuthService) IssueToken(u domain.User) (string, error) {
	now := s.Now()
	claims := &Claims{
		UserID:     u.ID,
		Role:       u.Role,
		LocationID: u.LocationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseToken verifies an HS256 token and returns the actor it carries.
func (s *AuthService) ParseToken(raw string) (domain.Actor, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.Now))
	if err != nil || !tok.Valid {
		return domain.Actor{}, ErrBadCreds
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.UserID == "" || !claims.Role.Valid() {
		return domain.Actor{}, ErrBadCreds
	}
	return domain.Actor{ID: claims.UserID, Role: claims.Role, LocationID: claims.LocationID}, nil
}

type NewUser struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role"`
	LocationID string      `json:"locationId,omitempty"`
	Phone      string      `json:"phone,omitempty"`
}

func (s *AuthService) CreateUser(ctx context.Context, req NewUser) (domain.User, error) {
	name, ok := validate.Name(req.Name)
	if !ok {
		return domain.User{}, invalid("user.name", "name must be 1-100 characters")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return domain.User{}, invalid("user.email", "invalid email")
	}
	if !validate.Password(req.Password) {
		return domain.User{}, invalid("user.password", "password must be 8-64 characters with mixed character classes")
	}
	if !req.Role.Valid() {
		return domain.User{}, invalid("user.role", "unknown role %q", req.Role)
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok {
		return domain.User{}, invalid("user.phone", "invalid phone")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:         newID("user"),
		Name:       name,
		Email:      email,
		Hash:       string(hash),
		Role:       req.Role,
		LocationID: req.LocationID,
		Phone:      phone,
		IsActive:   true,
		CreatedAt:  nowUTC(),
	}
	err = s.Store.Update(ctx, func(tx *repos.Tx) error {
		if _, dup := findUserByEmail(tx.Users(), email); dup {
			return fmt.Errorf("user %s: %w", email, ErrDuplicateRecord)
		}
		if u.LocationID != "" {
			if _, err := findLocation(tx.Locations(), u.LocationID); err != nil {
				return invalid("user.location", "unknown location %q", u.LocationID)
			}
		}
		us := tx.MutUsers()
		*us = append(*us, u)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	applog.Audit(nil, "user.create", map[string]any{"user": u.ID, "role": string(u.Role)})
	return u, nil
}

func (s *AuthService) ListUsers() []domain.User {
	return slices.Clone(s.Store.Snapshot().Users)
}

func (s *AuthService) GetUser(id string) (domain.User, error) {
	users := s.Store.Snapshot().Users
	i := slices.IndexFunc(users, func(u domain.User) bool { return u.ID == id })
	if i < 0 {
		return domain.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return users[i], nil
}

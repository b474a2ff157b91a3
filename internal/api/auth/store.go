package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FernanDeHoyos/api-rick/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a lookup by id finds no user.
	ErrUserNotFound = errors.New("user not found")
)

// Store persists user identity and verifies passwords.
type Store interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	LoadByID(ctx context.Context, id uint) (*model.User, error)
}

// NewStore creates the GORM-backed credential store. cost <= 0 uses
// bcrypt.DefaultCost.
func NewStore(db *gorm.DB, cost int) Store {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &gormStore{db: db, cost: cost}
}

type gormStore struct {
	db   *gorm.DB
	cost int
}

func (s *gormStore) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("query user: %w", err)
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Email:    email,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *gormStore) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		// Unknown email collapses to the same failure as a bad password.
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *gormStore) LoadByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// NormalizeEmail lowercases and trims the login key so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// HashPassword computes a bcrypt hash. The plaintext is never stored.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

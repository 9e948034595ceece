package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maid-market/internal/domain"
	"maid-market/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultAccessTokenExpiration applies when no expiry is configured
	DefaultAccessTokenExpiration = 24 * time.Hour
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid phone or password", domain.ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
)

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Name     string
	Phone    string
	Role     string
	Password string
}

// UserService defines the interface for account business logic
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (user *domain.User, accessToken string, err error)
	Login(ctx context.Context, phone, password string) (user *domain.User, accessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo     repository.UserRepository
	jwtSecret    string
	accessExpiry time.Duration
	now          func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, jwtSecret string, accessExpiry time.Duration) UserService {
	if accessExpiry <= 0 {
		accessExpiry = DefaultAccessTokenExpiration
	}
	return &userService{
		userRepo:     userRepo,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		now:          time.Now,
	}
}

// Register creates an account and returns it with an access token. The
// password is optional; accounts without one log in by phone alone.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Name == "" || in.Phone == "" || in.Role == "" {
		return nil, "", fmt.Errorf("%w: name, phone and role are required", domain.ErrInvalidArgument)
	}
	if !domain.IsValidRole(in.Role) {
		return nil, "", fmt.Errorf("%w: role must be %s or %s", domain.ErrInvalidArgument, domain.RoleCustomer, domain.RoleHelper)
	}
	if len(in.Password) > 72 {
		return nil, "", fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrInvalidArgument)
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByPhone(ctx, in.Phone)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", repository.ErrUserAlreadyExists
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Role:      in.Role,
		Name:      in.Name,
		Phone:     in.Phone,
		CreatedAt: s.now().UTC(),
	}
	if in.Password != "" {
		hashed, err := s.hashPassword(in.Password)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return user, token, nil
}

// Login authenticates by phone and returns the user with an access token
func (s *userService) Login(ctx context.Context, phone, password string) (*domain.User, string, error) {
	user, err := s.userRepo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash != "" {
		if err := s.verifyPassword(user.PasswordHash, password); err != nil {
			return nil, "", ErrInvalidCredentials
		}
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return user, token, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken signs an HS256 token carrying the user id and role
func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smarthouse/internal/logger"
	"smarthouse/internal/models"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
)

const tokenTTL = 24 * time.Hour

// Domain errors for house access flows.
var (
	ErrInvalidPassword     = errors.New("invalid house password")
	ErrHouseNotInitialized = errors.New("house not initialized")
	ErrInvalidToken        = errors.New("invalid token")
)

// HouseService owns house bootstrap, login and membership.
type HouseService struct {
	house      repository.HouseRepo
	members    repository.MemberRepo
	reg        *registry.Registry
	signingKey []byte
	log        *logger.Logger
}

func NewHouseService(house repository.HouseRepo, members repository.MemberRepo, reg *registry.Registry, signingKey string, log *logger.Logger) *HouseService {
	return &HouseService{
		house:      house,
		members:    members,
		reg:        reg,
		signingKey: []byte(signingKey),
		log:        log,
	}
}

var _ House = (*HouseService)(nil)

// Bootstrap returns the existing house, creating it with a bcrypt-hashed
// password on first boot.
func (s *HouseService) Bootstrap(ctx context.Context, houseName, password string) (*models.House, error) {
	h, err := s.house.Get(ctx)
	if err != nil {
		return nil, err
	}
	if h != nil {
		s.log.Infow("house_already_initialized", "house_id", h.HouseID)
		return h, nil
	}
	if len(password) < 8 {
		return nil, errors.New("house password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash house password: %w", err)
	}
	h, err = s.house.Init(ctx, houseName, string(hash))
	if err != nil {
		return nil, err
	}
	h.Rooms = []models.Room{}
	s.log.Infow("house_initialized", "house_id", h.HouseID, "house_name", h.HouseName)
	return h, nil
}

// Claims defines the JWT claims carried by a house session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Login verifies the house password, records the user as a member and
// issues a session token plus the current house snapshot.
func (s *HouseService) Login(ctx context.Context, userID, password string) (string, models.House, error) {
	h, err := s.house.Get(ctx)
	if err != nil {
		return "", models.House{}, err
	}
	if h == nil {
		return "", models.House{}, ErrHouseNotInitialized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)); err != nil {
		return "", models.House{}, ErrInvalidPassword
	}
	if err := s.members.Upsert(ctx, h.HouseID, userID); err != nil {
		return "", models.House{}, err
	}

	token, err := s.issueToken(userID)
	if err != nil {
		return "", models.House{}, err
	}
	return token, s.reg.House(), nil
}

// ParseToken validates a session token and returns the user id.
func (s *HouseService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Snapshot returns the registry's current house tree.
func (s *HouseService) Snapshot() models.House {
	return s.reg.House()
}

// GetMember fetches a house member; (nil, nil) when the user has no access.
func (s *HouseService) GetMember(ctx context.Context, userID string) (*models.HouseMember, error) {
	return s.members.Get(ctx, userID)
}

// RemoveMember revokes a user's access.
func (s *HouseService) RemoveMember(ctx context.Context, userID string) (int64, error) {
	return s.members.Delete(ctx, userID)
}

func (s *HouseService) issueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

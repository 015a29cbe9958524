package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rollcall/api/internal/model"
)

// ErrInvalidCredentials is returned for a wrong email or password. The two
// cases are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles authentication business logic: credential checks,
// token issue and revocation, and the login audit trail.
type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: db, redis: redisClient, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Authenticate validates user credentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	if err := s.db.Preload("Ward").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IssueToken creates a signed bearer token for the user.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	jti := make([]byte, 16)
	rand.Read(jti)

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"jti":     hex.EncodeToString(jti),
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a signed bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RevokeToken puts the token id on the revocation list until the token would
// have expired anyway. Logout with stateless JWTs is revocation, not
// deletion.
func (s *AuthService) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.redis == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revocationKey(jti), 1, ttl).Err()
}

// IsTokenRevoked reports whether the token id has been revoked.
func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, revocationKey(jti)).Result()
	return err == nil && n > 0
}

// CreateUser hashes the password and stores the user.
func (s *AuthService) CreateUser(ctx context.Context, user *model.User) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.db.Create(user).Error
}

// TeamLeadForWard returns the team lead of the given ward, if any. Workers
// see their lead in /auth/user.
func (s *AuthService) TeamLeadForWard(wardID uint) (*model.User, error) {
	var lead model.User
	err := s.db.Where("ward_id = ? AND role = ?", wardID, model.RoleTeamLead).First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

// RecordLogin appends a login audit row.
func (s *AuthService) RecordLogin(userID uint, email, ip, userAgent string, success bool, errorMsg string) {
	entry := model.LoginLog{
		UserID:    userID,
		Email:     email,
		Action:    "login",
		IP:        ip,
		UserAgent: userAgent,
		Success:   success,
		ErrorMsg:  errorMsg,
		CreatedAt: time.Now(),
	}
	s.db.Create(&entry)
}

// RecordLogout appends a logout audit row.
func (s *AuthService) RecordLogout(userID uint, email, ip string) {
	entry := model.LoginLog{
		UserID:    userID,
		Email:     email,
		Action:    "logout",
		IP:        ip,
		Success:   true,
		CreatedAt: time.Now(),
	}
	s.db.Create(&entry)
}

func revocationKey(jti string) string {
	return fmt.Sprintf("roll:revoked:%s", jti)
}

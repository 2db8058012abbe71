package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User is the logged-in identity
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Claims ties a token to a stored session
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

const defaultUserID = "user-1"

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := s.bind(c, &req); err != nil {
		return respondError(c, err)
	}

	// simulated round trip
	if delay := s.config.Auth.LoginDelay; delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.UserContext().Done():
			return fiber.ErrRequestTimeout
		}
	}

	emailOK := strings.EqualFold(req.Email, s.config.Auth.Email)
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.Auth.Password)) == 1
	if !emailOK || !passOK {
		s.logger.Warn("Login rejected", zap.String("email", req.Email))
		return respondError(c, apperrors.New(apperrors.ErrUnauthorized.Code, "invalid email or password"))
	}

	user := User{ID: defaultUserID, Name: s.config.Auth.Name, Email: s.config.Auth.Email}
	token, claims, err := s.issueToken(user)
	if err != nil {
		return respondError(c, err)
	}

	record, err := json.Marshal(user)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.sessions.SetSession(claims.ID, record, s.config.Auth.TokenTTL); err != nil {
		s.logger.Error("Failed to store session", zap.Error(err))
		return respondError(c, err)
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return c.JSON(LoginResponse{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	claims := c.Locals(userLocal).(*Claims)
	if err := s.sessions.DeleteSession(claims.ID); err != nil {
		s.logger.Warn("Failed to delete session", zap.Error(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleCurrentUser(c *fiber.Ctx) error {
	claims := c.Locals(userLocal).(*Claims)
	data, err := s.sessions.GetSession(claims.ID)
	if err != nil {
		return respondError(c, apperrors.New(apperrors.ErrUnauthorized.Code, "session expired"))
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) issueToken(user User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Auth.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// verifyToken checks the signature and that the session was not logged out
func (s *Server) verifyToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperrors.New(apperrors.ErrUnauthorized.Code, "missing token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperrors.New(apperrors.ErrUnauthorized.Code, "invalid token")
	}

	if _, err := s.sessions.GetSession(claims.ID); err != nil {
		return nil, apperrors.New(apperrors.ErrUnauthorized.Code, "session expired")
	}
	return claims, nil
}

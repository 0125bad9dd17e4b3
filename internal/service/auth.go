package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/models"
)

// AuthService issues and revokes opaque bearer tokens.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Login authenticates by email and password and returns the user's token,
// creating one on first login. Unknown email and wrong password are not
// distinguished.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	var token models.AuthToken
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).First(&token).Error; err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		key, err := generateTokenKey()
		if err != nil {
			return err
		}
		token = models.AuthToken{Key: key, UserID: user.ID}
		return tx.Create(&token).Error
	})
	if err != nil {
		return "", err
	}
	return token.Key, nil
}

// Logout deletes the user's token. Deleting an already-revoked token is
// not an error.
func (s *AuthService) Logout(userID uint) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
}

// ValidateToken resolves a token key to its user.
func (s *AuthService) ValidateToken(key string) (*models.User, error) {
	var token models.AuthToken
	if err := s.db.Preload("User").Where("key = ?", key).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &token.User, nil
}

// generateTokenKey returns 40 hex characters, the DRF token format.
func generateTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

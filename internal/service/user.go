package service

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/logger"
	"foodgram/internal/models"
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// UserService handles accounts, avatars and subscriptions.
type UserService struct {
	db     *gorm.DB
	images ImageStore
}

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{db: db, images: images}
}

// CreateUserInput carries the registration fields.
type CreateUserInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Avatar    string // optional base64 payload
}

// Create registers an account. Email and username must be unique.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !usernameRe.MatchString(in.Username) {
		return nil, fieldError("username", "enter a valid username")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fieldError("email", "user with this email already exists")
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fieldError("username", "user with this username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	}

	if in.Avatar != "" {
		data, ext, err := DecodeBase64Image(in.Avatar)
		if err != nil {
			return nil, fieldError("avatar", "invalid image")
		}
		path, err := s.images.Save(ctx, "avatars", data, ext)
		if err != nil {
			return nil, err
		}
		user.Avatar = path
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns one page of users plus the total count.
func (s *UserService) List(offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := s.db.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetPassword changes the password after checking the current one. The new
// password must differ from the current.
func (s *UserService) SetPassword(user *models.User, current, next string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fieldError("current_password", "wrong password")
	}
	if current == next {
		return fieldError("new_password", "new password must differ from the current one")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", string(hash)).Error
}

// SetAvatar stores a new avatar and removes the previous file, if any.
func (s *UserService) SetAvatar(ctx context.Context, user *models.User, payload string) (string, error) {
	data, ext, err := DecodeBase64Image(payload)
	if err != nil {
		return "", fieldError("avatar", "invalid image")
	}
	path, err := s.images.Save(ctx, "avatars", data, ext)
	if err != nil {
		return "", err
	}

	old := user.Avatar
	if err := s.db.Model(user).Update("avatar", path).Error; err != nil {
		return "", err
	}
	if old != "" {
		if err := s.images.Delete(ctx, old); err != nil {
			logger.L().Warn("failed to delete old avatar", zap.String("path", old), zap.Error(err))
		}
	}
	return s.images.URL(path), nil
}

// DeleteAvatar clears the avatar; the file removal is best-effort.
func (s *UserService) DeleteAvatar(ctx context.Context, user *models.User) error {
	if user.Avatar == "" {
		return nil
	}
	old := user.Avatar
	if err := s.db.Model(user).Update("avatar", "").Error; err != nil {
		return err
	}
	if err := s.images.Delete(ctx, old); err != nil {
		logger.L().Warn("failed to delete avatar", zap.String("path", old), zap.Error(err))
	}
	return nil
}

// Subscribe adds a follow relation. Following yourself or following twice
// is a client error.
func (s *UserService) Subscribe(followerID, followeeID uint) error {
	if followerID == followeeID {
		return ErrSelfSubscribe
	}
	if _, err := s.Get(followeeID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND subscribed_to = ?", followerID, followeeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return translateConflict(tx.Create(&models.Subscription{UserID: followerID, SubscribedTo: followeeID}).Error)
	})
}

// Unsubscribe removes a follow relation; removing a missing one is a
// client error.
func (s *UserService) Unsubscribe(followerID, followeeID uint) error {
	if _, err := s.Get(followeeID); err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND subscribed_to = ?", followerID, followeeID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotExists
	}
	return nil
}

// IsSubscribed reports whether follower follows followee.
func (s *UserService) IsSubscribed(followerID, followeeID uint) bool {
	if followerID == 0 {
		return false
	}
	var count int64
	s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND subscribed_to = ?", followerID, followeeID).
		Count(&count)
	return count > 0
}

// Subscriptions returns one page of the user's followees plus the total.
func (s *UserService) Subscriptions(userID uint, offset, limit int) ([]models.User, int64, error) {
	base := s.db.Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.subscribed_to = users.id").
		Where("subscriptions.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := base.Order("users.id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// RecipesByAuthor returns the author's recipes, newest first, optionally
// capped to limit (0 means all), plus the author's total recipe count.
func (s *UserService) RecipesByAuthor(authorID uint, limit int) ([]models.Recipe, int64, error) {
	var total int64
	if err := s.db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := s.db.Where("author_id = ?", authorID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

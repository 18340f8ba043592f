package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/validation"
)

// UserService handles profile reads and updates for the authenticated account
type UserService struct {
	userRepo *repository.UserRepository
	storage  *StorageService
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{userRepo: userRepo, storage: storage}
}

// GetByID returns the account or ErrAccountNotFound
func (s *UserService) GetByID(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	return user, nil
}

// ProfileUpdate carries the mutable profile fields. Nil pointers mean the
// field was absent from the request and keeps its current value.
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	Gender    *string
	Instagram *string
	Twitter   *string
	LinkedIn  *string
}

// UpdateProfile applies a partial profile update and returns the new state
func (s *UserService) UpdateProfile(userID int64, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		if err := validation.ValidateFullName(*update.FullName); err != nil {
			return nil, err
		}
		user.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Gender != nil {
		user.Gender = strings.TrimSpace(*update.Gender)
	}
	if update.Instagram != nil {
		user.Instagram = strings.TrimSpace(*update.Instagram)
	}
	if update.Twitter != nil {
		user.Twitter = strings.TrimSpace(*update.Twitter)
	}
	if update.LinkedIn != nil {
		user.LinkedIn = strings.TrimSpace(*update.LinkedIn)
	}

	err = s.userRepo.UpdateProfile(userID, user.FullName, user.Bio, user.Gender,
		user.Instagram, user.Twitter, user.LinkedIn)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar uploads a new avatar image and stores its public URL. The
// previous object, if any, is deleted best-effort after the switch.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, filename, contentType string, body io.Reader) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	key := ObjectKey("avatars", filename)
	url, err := s.storage.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatar(userID, url); err != nil {
		return nil, err
	}

	if old := s.storage.KeyFromURL(user.AvatarURL); old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			log.Printf("Failed to delete old avatar %s: %v", old, err)
		}
	}

	user.AvatarURL = url
	return user, nil
}

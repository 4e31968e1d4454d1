package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hooshmetr/internal/models"
	"hooshmetr/internal/repositories"
)

var ErrEmailTaken = errors.New("email already in use")

type UserService interface {
	// GetOrCreateByMobile resolves the account for a verified mobile,
	// creating it on first login with role "user" and is_active true.
	GetOrCreateByMobile(mobile string, now time.Time) (*models.User, error)
	TouchLastLogin(id int, at time.Time)
	GetByID(id int) (*models.User, error)
	UpdateProfile(id int, upd *models.ProfileUpdate) (*models.User, error)
	List(limit, offset int) ([]*models.User, error)
	Count() (int, error)
	SetActive(id int, active bool) error
}

type userService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetOrCreateByMobile(mobile string, now time.Time) (*models.User, error) {
	user, err := s.repo.GetByMobile(mobile)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		Mobile:    mobile,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(user); err != nil {
		// a concurrent first login may have won the unique constraint
		// on mobile; the row it created is ours to reuse
		existing, getErr := s.repo.GetByMobile(mobile)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return user, nil
}

// TouchLastLogin is best-effort: a failed timestamp update must not
// undo an already-successful verification.
func (s *userService) TouchLastLogin(id int, at time.Time) {
	if err := s.repo.UpdateLastLogin(id, at); err != nil {
		log.Printf("[users] update last_login failed: user_id=%d err=%v", id, err)
	}
}

func (s *userService) GetByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) UpdateProfile(id int, upd *models.ProfileUpdate) (*models.User, error) {
	if upd.Email != nil && *upd.Email != "" {
		taken, err := s.repo.EmailTaken(*upd.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	return s.repo.UpdateProfile(id, upd)
}

func (s *userService) List(limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(limit, offset)
}

func (s *userService) Count() (int, error) {
	return s.repo.Count()
}

func (s *userService) SetActive(id int, active bool) error {
	return s.repo.SetActive(id, active)
}

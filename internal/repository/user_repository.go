package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"gorm.io/gorm"
)

// UserRepository is the GORM-backed store for federated users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFederated creates the user on first login and refreshes the
// profile fields on subsequent logins. Role and any existing settings
// are preserved on refresh.
func (r *UserRepository) UpsertFederated(ctx context.Context, u *model.User) (*model.User, error) {
	defer prometheus.TrackDBOperation("upsert")(time.Now())

	var existing model.User
	err := r.db.WithContext(ctx).Where("google_id = ?", u.GoogleID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// an earlier non-federated row with the same email is adopted
		err = r.db.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if u.Role == "" {
			u.Role = model.RoleCustomer
		}
		if u.Provider == "" {
			u.Provider = "google"
		}
		if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	existing.GoogleID = u.GoogleID
	existing.Email = u.Email
	existing.Name = u.Name
	existing.Picture = u.Picture
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

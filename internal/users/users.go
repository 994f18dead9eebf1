// Package users keeps the optional customer identity attached to orders.
// Ordering stays anonymous; a user record exists only when contact info
// was provided at checkout.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

type Repo struct {
	DB *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// FindOrCreate resolves contact info to a user, matching by phone first,
// then email. A fresh record is created when neither matches.
func (r *Repo) FindOrCreate(ctx context.Context, phone, email, name string) (*models.User, error) {
	if phone == "" && email == "" {
		return nil, errs.Validationf("CONTACT_REQUIRED", "phone",
			"phone or email is required to attach a user")
	}

	var user models.User
	q := r.DB.WithContext(ctx)

	if phone != "" {
		err := q.Where("phone = ?", phone).First(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: find user by phone: %v", errs.ErrInternal, err)
		}
	}
	if email != "" {
		err := q.Where("email = ?", email).First(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: find user by email: %v", errs.ErrInternal, err)
		}
	}

	user = models.User{Phone: phone, Email: email, Name: name}
	if err := q.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("%w: create user: %v", errs.ErrInternal, err)
	}
	return &user, nil
}

func (r *Repo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("USER_NOT_FOUND", "no user with phone '%s'", phone)
		}
		return nil, fmt.Errorf("%w: find user by phone: %v", errs.ErrInternal, err)
	}
	return &user, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("USER_NOT_FOUND", "no user with email '%s'", email)
		}
		return nil, fmt.Errorf("%w: find user by email: %v", errs.ErrInternal, err)
	}
	return &user, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("USER_NOT_FOUND", "user '%s' not found", id)
		}
		return nil, fmt.Errorf("%w: find user: %v", errs.ErrInternal, err)
	}
	return &user, nil
}

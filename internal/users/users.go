// Package users resolves a token's subject (the user's email) to a stored
// user record and its role.
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/models"
)

// ErrNotFound means the principal does not resolve to any stored user. The
// auth filter surfaces this instead of downgrading to anonymous: a validly
// signed token for a missing user points at a data-consistency problem.
var ErrNotFound = errors.New("users: principal not found")

type Service struct {
	DB *gorm.DB
}

func (s *Service) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
		}
		return nil, fmt.Errorf("users: lookup %s: %w", email, err)
	}
	return &user, nil
}

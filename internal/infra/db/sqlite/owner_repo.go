package sqlite

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Gioaltam/Inspection-agent/internal/domain/portal"
)

type OwnerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

func (r *OwnerRepository) ByEmail(ctx context.Context, email string) (*portal.Owner, error) {
	var o portal.Owner
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepository) ByID(ctx context.Context, id string) (*portal.Owner, error) {
	var o portal.Owner
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepository) Save(ctx context.Context, o *portal.Owner) error {
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	return r.db.WithContext(ctx).Save(o).Error
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tush00nka/filestash/internal/model"
)

type AccountRepository interface {
	// FindOrCreate returns the account registered for email, creating it on first use.
	FindOrCreate(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindOrCreate(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Where(model.Account{Email: email}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find or create account: %w", translate(err))
	}
	return &account, nil
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to find account: %w", translate(err))
	}
	return &account, nil
}

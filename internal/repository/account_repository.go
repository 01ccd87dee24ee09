package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nhankey2000/auto-post/internal/models"
	"gorm.io/gorm"
)

// AccountRepository handles database operations for platform accounts
type AccountRepository interface {
	Create(ctx context.Context, account *models.PlatformAccount) error
	Get(ctx context.Context, id uint) (*models.PlatformAccount, error)
	List(ctx context.Context, activeOnly bool) ([]*models.PlatformAccount, error)
	Update(ctx context.Context, account *models.PlatformAccount) error
	// RecordCheck stores the outcome of a connection check. expiresAt is
	// only written when ok is true; nil clears a previous expiry.
	RecordCheck(ctx context.Context, id uint, ok bool, expiresAt *time.Time, checkedAt time.Time) error
	Delete(ctx context.Context, id uint) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.PlatformAccount) error {
	if account == nil || account.PageID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) Get(ctx context.Context, id uint) (*models.PlatformAccount, error) {
	var account models.PlatformAccount
	err := r.db.WithContext(ctx).First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context, activeOnly bool) ([]*models.PlatformAccount, error) {
	var accounts []*models.PlatformAccount
	q := r.db.WithContext(ctx).Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) Update(ctx context.Context, account *models.PlatformAccount) error {
	if account == nil || account.ID == 0 {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *accountRepository) RecordCheck(ctx context.Context, id uint, ok bool, expiresAt *time.Time, checkedAt time.Time) error {
	updates := map[string]interface{}{
		"last_checked_at": checkedAt,
		"last_check_ok":   ok,
	}
	if ok {
		updates["expires_at"] = expiresAt
	}

	res := r.db.WithContext(ctx).Model(&models.PlatformAccount{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.PlatformAccount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

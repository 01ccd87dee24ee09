package service

import (
	"context"
	"strings"
	"time"

	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/telemetry"
	"github.com/nhankey2000/auto-post/internal/token"
	"go.uber.org/zap"
)

// AccountService manages page connections
type AccountService struct {
	accounts  repository.AccountRepository
	validator TokenChecker
	log       *zap.Logger
	now       func() time.Time
}

// NewAccountService creates an AccountService. log may be nil.
func NewAccountService(accounts repository.AccountRepository, validator TokenChecker, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{accounts: accounts, validator: validator, log: log, now: time.Now}
}

// Add stores a new page connection.
func (s *AccountService) Add(ctx context.Context, account *models.PlatformAccount) error {
	account.PageID = strings.TrimSpace(account.PageID)
	account.AccessToken = strings.TrimSpace(account.AccessToken)
	if account.PageID == "" {
		return ErrMissingPageID
	}
	if account.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if account.Platform == "" {
		account.Platform = token.PlatformFacebook
	}
	if account.Name == "" {
		account.Name = account.PageID
	}
	account.IsActive = true
	return s.accounts.Create(ctx, account)
}

// Get returns one account
func (s *AccountService) Get(ctx context.Context, id uint) (*models.PlatformAccount, error) {
	return s.accounts.Get(ctx, id)
}

// List returns every account, or only active ones
func (s *AccountService) List(ctx context.Context, activeOnly bool) ([]*models.PlatformAccount, error) {
	return s.accounts.List(ctx, activeOnly)
}

// CheckConnection validates the stored token and records the outcome. A
// valid token stores its expiry, clearing it for tokens that never expire;
// an invalid one leaves the stored expiry alone. The returned error is only
// set for lookup or storage failures.
func (s *AccountService) CheckConnection(ctx context.Context, id uint) (*models.PlatformAccount, bool, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	spanCtx, span := telemetry.StartTokenCheck(ctx, id, account.PageID)
	result, ok := s.validator.Check(spanCtx, token.Credential{
		Platform:    account.Platform,
		PageID:      account.PageID,
		AccessToken: account.AccessToken,
		AppID:       account.AppID,
		AppSecret:   account.AppSecret,
	})
	if ok {
		telemetry.End(span, nil)
	} else {
		telemetry.End(span, ErrConnectionInvalid)
	}

	checkedAt := s.now().UTC()
	if err := s.accounts.RecordCheck(ctx, id, ok, result.ExpiresAt, checkedAt); err != nil {
		return nil, false, err
	}

	account.LastCheckedAt = &checkedAt
	account.LastCheckOK = ok
	if ok {
		account.ExpiresAt = result.ExpiresAt
	}

	s.log.Info("Checked page connection",
		zap.Uint("account_id", id),
		zap.String("page_id", account.PageID),
		zap.Bool("valid", ok),
	)
	return account, ok, nil
}

// CheckAll checks the given accounts, or every active account when ids is empty.
func (s *AccountService) CheckAll(ctx context.Context, ids []uint) (BulkResult, error) {
	ids, err := s.resolveIDs(ctx, ids)
	if err != nil {
		return BulkResult{}, err
	}

	var result BulkResult
	for _, id := range ids {
		_, ok, err := s.CheckConnection(ctx, id)
		if err == nil && !ok {
			err = ErrConnectionInvalid
		}
		result.record(id, err)
	}
	return result, nil
}

func (s *AccountService) resolveIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	accounts, err := s.accounts.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

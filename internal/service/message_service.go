package service

import (
	"context"
	"strings"

	"github.com/nhankey2000/auto-post/internal/messaging"
	"github.com/nhankey2000/auto-post/internal/repository"
)

// MessageService reads and answers page conversations
type MessageService struct {
	accounts repository.AccountRepository
	bridge   MessageBridge
}

// NewMessageService creates a MessageService
func NewMessageService(accounts repository.AccountRepository, bridge MessageBridge) *MessageService {
	return &MessageService{accounts: accounts, bridge: bridge}
}

// List returns recent messages of the account's page
func (s *MessageService) List(ctx context.Context, accountID uint) ([]messaging.Message, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	target, err := targetOf(account)
	if err != nil {
		return nil, err
	}
	return s.bridge.FetchMessages(ctx, target.PageID, target.AccessToken)
}

// Reply answers a user who messaged the account's page
func (s *MessageService) Reply(ctx context.Context, accountID uint, recipientID, text string) error {
	if strings.TrimSpace(recipientID) == "" || strings.TrimSpace(text) == "" {
		return ErrEmptyReply
	}
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	target, err := targetOf(account)
	if err != nil {
		return err
	}
	return s.bridge.Reply(ctx, recipientID, target.AccessToken, text)
}

// Avatar returns the page picture URL; it falls back to the public URL.
func (s *MessageService) Avatar(ctx context.Context, accountID uint) (string, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.AccessToken == "" {
		return messaging.FallbackAvatarURL(account.PageID), nil
	}
	return s.bridge.PageAvatar(ctx, account.PageID, account.AccessToken), nil
}

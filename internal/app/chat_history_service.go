package app

import (
	"context"

	"mindscribe/internal/model"
)

type TranscriptStore interface {
	ListByUserID(userID uint, limit int) ([]model.TranscriptMessage, error)
}

// HistoryCache is the redis-backed transcript cache. The dirty marker covers
// the window where the persist worker may not have drained the queue yet.
type HistoryCache interface {
	GetHistory(ctx context.Context, userID uint) ([]model.TranscriptMessage, bool, error)
	SetHistory(ctx context.Context, userID uint, messages []model.TranscriptMessage) error
	DeleteHistory(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}

type ChatHistoryService struct {
	store TranscriptStore
	cache HistoryCache
}

func NewChatHistoryService(store TranscriptStore, cache HistoryCache) *ChatHistoryService {
	return &ChatHistoryService{store: store, cache: cache}
}

func (s *ChatHistoryService) History(ctx context.Context, userID uint, limit int) ([]model.TranscriptMessage, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, userID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.store.ListByUserID(userID, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.cache.SetHistory(ctx, userID, messages)
		}
	}
	return messages, nil
}

func trimMessages(messages []model.TranscriptMessage, limit int) []model.TranscriptMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

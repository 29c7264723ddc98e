package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mindscribe/internal/ai"
	"mindscribe/internal/model"
	"mindscribe/internal/search"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// EntryStore is the subset of the entry repository the service needs.
type EntryStore interface {
	Upsert(entry *model.Entry) error
	GetByUserIDAndDate(userID uint, date string) (*model.Entry, error)
	ListByUserID(userID uint) ([]model.Entry, error)
	ListByUserIDAndRange(userID uint, startDate, endDate string) ([]model.Entry, error)
	ListByUserIDs(userIDs []uint) ([]model.Entry, error)
	DeleteByUserIDAndDate(userID uint, date string) (bool, error)
}

type EntryService struct {
	store            EntryStore
	embedder         Embedder
	completer        Completer
	defaultTopK      int
	summaryThreshold float64
}

// ScoredEntry pairs an entry with its similarity to a query.
type ScoredEntry struct {
	Entry model.Entry `json:"entry"`
	Score float64     `json:"score"`
}

func NewEntryService(store EntryStore, embedder Embedder, completer Completer, defaultTopK int, summaryThreshold float64) *EntryService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if summaryThreshold <= 0 {
		summaryThreshold = 0.5
	}
	return &EntryService{
		store:            store,
		embedder:         embedder,
		completer:        completer,
		defaultTopK:      defaultTopK,
		summaryThreshold: summaryThreshold,
	}
}

// Save embeds the content and upserts the entry for the given day. Saving
// twice for one day replaces the earlier note.
func (s *EntryService) Save(ctx context.Context, userID uint, date, content string) (*model.Entry, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if !dateRe.MatchString(date) {
		return nil, ErrInvalidDate
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed entry failed: %w", err)
	}

	entry := &model.Entry{
		UserID:  userID,
		Date:    date,
		Content: content,
	}
	entry.SetEmbedding(vec)
	if err := s.store.Upsert(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) Get(userID uint, date string) (*model.Entry, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if !dateRe.MatchString(date) {
		return nil, ErrInvalidDate
	}
	entry, err := s.store.GetByUserIDAndDate(userID, date)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *EntryService) List(userID uint) ([]model.Entry, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.store.ListByUserID(userID)
}

func (s *EntryService) Delete(userID uint, date string) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	if !dateRe.MatchString(date) {
		return ErrInvalidDate
	}
	deleted, err := s.store.DeleteByUserIDAndDate(userID, date)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	return nil
}

// Search embeds the query and ranks all of the user's entries by cosine
// similarity, returning the top limit matches.
func (s *EntryService) Search(ctx context.Context, userID uint, query string, limit int) ([]ScoredEntry, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	entries, err := s.store.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, entries, query, limit)
}

// SearchAcrossUsers runs the same ranking over several users' entries, used
// for team-wide search after the caller has verified membership.
func (s *EntryService) SearchAcrossUsers(ctx context.Context, userIDs []uint, query string, limit int) ([]ScoredEntry, error) {
	entries, err := s.store.ListByUserIDs(userIDs)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, entries, query, limit)
}

func (s *EntryService) ListAcrossUsers(userIDs []uint) ([]model.Entry, error) {
	return s.store.ListByUserIDs(userIDs)
}

func (s *EntryService) rank(ctx context.Context, entries []model.Entry, query string, limit int) ([]ScoredEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = s.defaultTopK
	}
	if len(entries) == 0 {
		return []ScoredEntry{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	candidates := make([][]float32, len(entries))
	for i := range entries {
		candidates[i] = entries[i].EmbeddingVector()
	}

	ranked := search.Rank(queryVec, candidates, limit)
	results := make([]ScoredEntry, len(ranked))
	for i, r := range ranked {
		results[i] = ScoredEntry{Entry: entries[r.Index], Score: r.Score}
	}
	return results, nil
}

// SummaryInput selects a date range and an optional topic; when a topic is
// given, only entries whose similarity to it exceeds the summary threshold
// are fed to the model.
type SummaryInput struct {
	UserID    uint
	StartDate string
	EndDate   string
	Topic     string
}

type SummaryResult struct {
	Summary    string        `json:"summary"`
	EntryCount int           `json:"entry_count"`
	Entries    []model.Entry `json:"entries"`
}

func (s *EntryService) Summarize(ctx context.Context, input SummaryInput) (*SummaryResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if !dateRe.MatchString(input.StartDate) || !dateRe.MatchString(input.EndDate) {
		return nil, ErrInvalidDate
	}

	entries, err := s.store.ListByUserIDAndRange(input.UserID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(input.Topic)
	if topic != "" && len(entries) > 0 {
		topicVec, err := s.embedder.Embed(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("embed topic failed: %w", err)
		}
		candidates := make([][]float32, len(entries))
		for i := range entries {
			candidates[i] = entries[i].EmbeddingVector()
		}
		matched := search.Above(topicVec, candidates, s.summaryThreshold)
		filtered := make([]model.Entry, len(matched))
		for i, m := range matched {
			filtered[i] = entries[m.Index]
		}
		entries = filtered
	}

	if len(entries) == 0 {
		return &SummaryResult{
			Summary:    "No journal entries found for this period.",
			EntryCount: 0,
			Entries:    []model.Entry{},
		}, nil
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Date)
		sb.WriteString(":\n")
		sb.WriteString(e.Content)
		sb.WriteString("\n---\n")
	}

	systemContent := "You are a reflective journaling assistant. Summarize the user's journal entries, highlighting recurring themes, moods and notable events. Be concise."
	userContent := "Journal entries:\n" + sb.String() + "\nSummary:"
	if topic != "" {
		userContent = "Focus on the topic: " + topic + "\n\n" + userContent
	}

	summary, err := s.completer.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Summary:    strings.TrimSpace(summary),
		EntryCount: len(entries),
		Entries:    entries,
	}, nil
}

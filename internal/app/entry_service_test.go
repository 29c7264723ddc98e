package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscribe/internal/ai"
	"mindscribe/internal/model"
)

type memEntryStore struct {
	entries map[uint]map[string]*model.Entry
	nextID  uint
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: map[uint]map[string]*model.Entry{}, nextID: 1}
}

func (s *memEntryStore) Upsert(entry *model.Entry) error {
	if s.entries[entry.UserID] == nil {
		s.entries[entry.UserID] = map[string]*model.Entry{}
	}
	if existing, ok := s.entries[entry.UserID][entry.Date]; ok {
		existing.Content = entry.Content
		existing.Embedding = entry.Embedding
		*entry = *existing
		return nil
	}
	entry.ID = s.nextID
	s.nextID++
	copied := *entry
	s.entries[entry.UserID][entry.Date] = &copied
	return nil
}

func (s *memEntryStore) GetByUserIDAndDate(userID uint, date string) (*model.Entry, error) {
	e, ok := s.entries[userID][date]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (s *memEntryStore) ListByUserID(userID uint) ([]model.Entry, error) {
	return s.ListByUserIDAndRange(userID, "0000-00-00", "9999-99-99")
}

func (s *memEntryStore) ListByUserIDAndRange(userID uint, startDate, endDate string) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range s.entries[userID] {
		if e.Date >= startDate && e.Date <= endDate {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memEntryStore) ListByUserIDs(userIDs []uint) ([]model.Entry, error) {
	var out []model.Entry
	for _, id := range userIDs {
		entries, _ := s.ListByUserID(id)
		out = append(out, entries...)
	}
	return out, nil
}

func (s *memEntryStore) DeleteByUserIDAndDate(userID uint, date string) (bool, error) {
	if _, ok := s.entries[userID][date]; !ok {
		return false, nil
	}
	delete(s.entries[userID], date)
	return true, nil
}

// fakeEmbedder maps known texts to fixed vectors so similarity is
// predictable; unknown texts get an orthogonal default.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type fakeCompleter struct {
	reply    string
	gotInput []ai.ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.gotInput = messages
	return f.reply, nil
}

func newTestEntryService(store *memEntryStore, emb *fakeEmbedder, comp *fakeCompleter) *EntryService {
	if emb == nil {
		emb = &fakeEmbedder{}
	}
	if comp == nil {
		comp = &fakeCompleter{reply: "a summary"}
	}
	return NewEntryService(store, emb, comp, 5, 0.5)
}

func TestSaveAndGetEntry(t *testing.T) {
	store := newMemEntryStore()
	svc := newTestEntryService(store, nil, nil)
	ctx := context.Background()

	saved, err := svc.Save(ctx, 1, "2026-08-30", "shipped the release")
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.NotEmpty(t, saved.Embedding)

	got, err := svc.Get(1, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "shipped the release", got.Content)
}

func TestSaveReplacesSameDay(t *testing.T) {
	store := newMemEntryStore()
	svc := newTestEntryService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, 1, "2026-08-30", "first draft")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-08-30", "final version")
	require.NoError(t, err)

	entries, err := svc.List(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "final version", entries[0].Content)
}

func TestSaveRejectsBadDate(t *testing.T) {
	svc := newTestEntryService(newMemEntryStore(), nil, nil)

	_, err := svc.Save(context.Background(), 1, "30/08/2026", "note")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Save(context.Background(), 1, "2026-08-30", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMissingEntry(t *testing.T) {
	svc := newTestEntryService(newMemEntryStore(), nil, nil)

	_, err := svc.Get(1, "2026-01-01")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestDeleteMissingEntry(t *testing.T) {
	svc := newTestEntryService(newMemEntryStore(), nil, nil)

	err := svc.Delete(1, "2026-01-01")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	store := newMemEntryStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"ran five kilometers":  {1, 0, 0},
		"debugged the parser":  {0, 1, 0},
		"morning jog in rain":  {0.9, 0.1, 0},
		"running and exercise": {1, 0, 0},
	}}
	svc := newTestEntryService(store, emb, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, 1, "2026-08-01", "ran five kilometers")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-08-02", "debugged the parser")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-08-03", "morning jog in rain")
	require.NoError(t, err)

	results, err := svc.Search(ctx, 1, "running and exercise", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ran five kilometers", results[0].Entry.Content)
	assert.Equal(t, "morning jog in rain", results[1].Entry.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchNoEntries(t *testing.T) {
	svc := newTestEntryService(newMemEntryStore(), nil, nil)

	results, err := svc.Search(context.Background(), 1, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSummarizeEmptyRange(t *testing.T) {
	comp := &fakeCompleter{reply: "should not be called"}
	svc := newTestEntryService(newMemEntryStore(), nil, comp)

	result, err := svc.Summarize(context.Background(), SummaryInput{
		UserID:    1,
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "No journal entries found for this period.", result.Summary)
	assert.Zero(t, result.EntryCount)
	assert.Nil(t, comp.gotInput)
}

func TestSummarizeRange(t *testing.T) {
	store := newMemEntryStore()
	comp := &fakeCompleter{reply: "A week of steady progress."}
	svc := newTestEntryService(store, nil, comp)
	ctx := context.Background()

	_, err := svc.Save(ctx, 1, "2026-08-10", "started the migration")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-08-12", "finished the migration")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-09-01", "outside the range")
	require.NoError(t, err)

	result, err := svc.Summarize(ctx, SummaryInput{
		UserID:    1,
		StartDate: "2026-08-01",
		EndDate:   "2026-08-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "A week of steady progress.", result.Summary)
	assert.Equal(t, 2, result.EntryCount)
	require.NotNil(t, comp.gotInput)
}

func TestSummarizeTopicFilter(t *testing.T) {
	store := newMemEntryStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"gym session went well": {1, 0, 0},
		"tax paperwork all day": {0, 1, 0},
		"fitness":               {1, 0, 0},
	}}
	comp := &fakeCompleter{reply: "Consistent training."}
	svc := newTestEntryService(store, emb, comp)
	ctx := context.Background()

	_, err := svc.Save(ctx, 1, "2026-08-10", "gym session went well")
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, "2026-08-11", "tax paperwork all day")
	require.NoError(t, err)

	result, err := svc.Summarize(ctx, SummaryInput{
		UserID:    1,
		StartDate: "2026-08-01",
		EndDate:   "2026-08-31",
		Topic:     "fitness",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntryCount)
	assert.Equal(t, "gym session went well", result.Entries[0].Content)
}

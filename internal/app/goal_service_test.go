package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscribe/internal/model"
)

type memGoalStore struct {
	goals  map[uint]*model.Goal
	nextID uint
}

func newMemGoalStore() *memGoalStore {
	return &memGoalStore{goals: map[uint]*model.Goal{}, nextID: 1}
}

func (s *memGoalStore) Create(goal *model.Goal) error {
	goal.ID = s.nextID
	s.nextID++
	copied := *goal
	s.goals[goal.ID] = &copied
	return nil
}

func (s *memGoalStore) GetByID(id uint) (*model.Goal, error) {
	g, ok := s.goals[id]
	if !ok {
		return nil, nil
	}
	copied := *g
	return &copied, nil
}

func (s *memGoalStore) ListByUserID(userID uint) ([]model.Goal, error) {
	var out []model.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.TeamID == 0 {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *memGoalStore) ListByTeamID(teamID uint) ([]model.Goal, error) {
	var out []model.Goal
	for _, g := range s.goals {
		if g.TeamID == teamID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *memGoalStore) SetCompleted(id uint, completed bool) error {
	if g, ok := s.goals[id]; ok {
		g.Completed = completed
	}
	return nil
}

func (s *memGoalStore) Delete(id uint) error {
	delete(s.goals, id)
	return nil
}

func newTestGoalService(entries *memEntryStore, emb *fakeEmbedder) (*GoalService, *TeamService) {
	if entries == nil {
		entries = newMemEntryStore()
	}
	if emb == nil {
		emb = &fakeEmbedder{}
	}
	teams := newTestTeamService()
	return NewGoalService(newMemGoalStore(), teams, entries, emb, 0.6), teams
}

func TestCreatePersonalGoal(t *testing.T) {
	svc, _ := newTestGoalService(nil, nil)

	goal, err := svc.Create(CreateGoalInput{UserID: 1, Title: "run a marathon", Deadline: "2026-12-31"})
	require.NoError(t, err)
	assert.Zero(t, goal.TeamID)
	assert.False(t, goal.Completed)

	goals, err := svc.List(1)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestCreateGoalBadDeadline(t *testing.T) {
	svc, _ := newTestGoalService(nil, nil)

	_, err := svc.Create(CreateGoalInput{UserID: 1, Title: "x", Deadline: "next week"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestTeamGoalLeadOnly(t *testing.T) {
	svc, teams := newTestGoalService(nil, nil)

	team, err := teams.Create(1, "infra")
	require.NoError(t, err)
	_, err = teams.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)

	_, err = svc.Create(CreateGoalInput{UserID: 2, TeamID: team.ID, Title: "ship v2"})
	require.ErrorIs(t, err, ErrLeadOnly)
	assert.EqualError(t, err, "only the team lead can create team goals")

	goal, err := svc.Create(CreateGoalInput{UserID: 1, TeamID: team.ID, Title: "ship v2"})
	require.NoError(t, err)
	assert.Equal(t, team.ID, goal.TeamID)
}

func TestAnyMemberCanCompleteTeamGoal(t *testing.T) {
	svc, teams := newTestGoalService(nil, nil)

	team, err := teams.Create(1, "infra")
	require.NoError(t, err)
	_, err = teams.Join(team.ID, 2, team.InviteCode)
	require.NoError(t, err)

	goal, err := svc.Create(CreateGoalInput{UserID: 1, TeamID: team.ID, Title: "ship v2"})
	require.NoError(t, err)

	updated, err := svc.SetCompleted(goal.ID, 2, true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	_, err = svc.SetCompleted(goal.ID, 99, true)
	assert.ErrorIs(t, err, ErrNotTeamMember)
}

func TestPersonalGoalOwnerOnly(t *testing.T) {
	svc, _ := newTestGoalService(nil, nil)

	goal, err := svc.Create(CreateGoalInput{UserID: 1, Title: "read more"})
	require.NoError(t, err)

	_, err = svc.SetCompleted(goal.ID, 2, true)
	assert.ErrorIs(t, err, ErrNotGoalOwner)

	err = svc.Delete(goal.ID, 2)
	assert.ErrorIs(t, err, ErrNotGoalOwner)

	require.NoError(t, svc.Delete(goal.ID, 1))
	_, err = svc.SetCompleted(goal.ID, 1, true)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestListTeamGoalsRequiresMembership(t *testing.T) {
	svc, teams := newTestGoalService(nil, nil)

	team, err := teams.Create(1, "infra")
	require.NoError(t, err)

	_, err = svc.ListTeam(team.ID, 99)
	assert.ErrorIs(t, err, ErrNotTeamMember)
}

func TestCheckProgressCountsMentions(t *testing.T) {
	entries := newMemEntryStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"trained for the marathon today": {1, 0, 0},
		"watched a movie":                {0, 1, 0},
		"long run before work":           {0.95, 0.05, 0},
		"run a marathon":                 {1, 0, 0},
	}}
	svc, _ := newTestGoalService(entries, emb)
	ctx := context.Background()

	entrySvc := newTestEntryService(entries, emb, nil)
	_, err := entrySvc.Save(ctx, 1, "2026-08-01", "trained for the marathon today")
	require.NoError(t, err)
	_, err = entrySvc.Save(ctx, 1, "2026-08-02", "watched a movie")
	require.NoError(t, err)
	_, err = entrySvc.Save(ctx, 1, "2026-08-03", "long run before work")
	require.NoError(t, err)

	goal, err := svc.Create(CreateGoalInput{UserID: 1, Title: "run a marathon"})
	require.NoError(t, err)

	result, err := svc.CheckProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MentionCount)
	assert.ElementsMatch(t, []string{"2026-08-01", "2026-08-03"}, result.MentionDates)
}

func TestCheckProgressNoEntries(t *testing.T) {
	svc, _ := newTestGoalService(nil, nil)

	goal, err := svc.Create(CreateGoalInput{UserID: 1, Title: "read more"})
	require.NoError(t, err)

	result, err := svc.CheckProgress(context.Background(), goal.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, result.MentionCount)
	assert.Empty(t, result.MentionDates)
}

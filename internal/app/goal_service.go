package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindscribe/internal/model"
	"mindscribe/internal/search"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrLeadOnly     = errors.New("only the team lead can create team goals")
	ErrNotGoalOwner = errors.New("goal belongs to another user")
)

type GoalStore interface {
	Create(goal *model.Goal) error
	GetByID(id uint) (*model.Goal, error)
	ListByUserID(userID uint) ([]model.Goal, error)
	ListByTeamID(teamID uint) ([]model.Goal, error)
	SetCompleted(id uint, completed bool) error
	Delete(id uint) error
}

type GoalService struct {
	store            GoalStore
	teams            *TeamService
	entries          EntryStore
	embedder         Embedder
	mentionThreshold float64
}

type CreateGoalInput struct {
	UserID      uint
	TeamID      uint
	Title       string
	Description string
	Deadline    string
}

func NewGoalService(store GoalStore, teams *TeamService, entries EntryStore, embedder Embedder, mentionThreshold float64) *GoalService {
	if mentionThreshold <= 0 {
		mentionThreshold = 0.6
	}
	return &GoalService{
		store:            store,
		teams:            teams,
		entries:          entries,
		embedder:         embedder,
		mentionThreshold: mentionThreshold,
	}
}

// Create stores a personal goal, or a team goal when TeamID is set. Team
// goals are restricted to the team lead.
func (s *GoalService) Create(input CreateGoalInput) (*model.Goal, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	if input.Deadline != "" && !dateRe.MatchString(input.Deadline) {
		return nil, ErrInvalidDate
	}

	if input.TeamID != 0 {
		role, err := s.teams.MemberRole(input.TeamID, input.UserID)
		if err != nil {
			return nil, err
		}
		if role != model.RoleLead {
			return nil, ErrLeadOnly
		}
	}

	goal := &model.Goal{
		UserID:      input.UserID,
		TeamID:      input.TeamID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Deadline:    input.Deadline,
	}
	if err := s.store.Create(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) List(userID uint) ([]model.Goal, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.store.ListByUserID(userID)
}

func (s *GoalService) ListTeam(teamID, userID uint) ([]model.Goal, error) {
	ok, err := s.teams.IsMember(teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotTeamMember
	}
	return s.store.ListByTeamID(teamID)
}

// SetCompleted toggles the completion flag. Personal goals are owner-only;
// any team member may complete a team goal.
func (s *GoalService) SetCompleted(goalID, userID uint, completed bool) (*model.Goal, error) {
	goal, err := s.authorize(goalID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCompleted(goalID, completed); err != nil {
		return nil, err
	}
	goal.Completed = completed
	return goal, nil
}

func (s *GoalService) Delete(goalID, userID uint) error {
	if _, err := s.authorize(goalID, userID); err != nil {
		return err
	}
	return s.store.Delete(goalID)
}

func (s *GoalService) authorize(goalID, userID uint) (*model.Goal, error) {
	if goalID == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	goal, err := s.store.GetByID(goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}

	if goal.TeamID != 0 {
		ok, err := s.teams.IsMember(goal.TeamID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotTeamMember
		}
		return goal, nil
	}

	if goal.UserID != userID {
		return nil, ErrNotGoalOwner
	}
	return goal, nil
}

// ProgressResult reports which entries mention a goal, where a mention is a
// similarity above the mention threshold.
type ProgressResult struct {
	Goal         model.Goal `json:"goal"`
	MentionCount int        `json:"mention_count"`
	MentionDates []string   `json:"mention_dates"`
}

// CheckProgress embeds the goal text and scans the user's entries for
// mentions.
func (s *GoalService) CheckProgress(ctx context.Context, goalID, userID uint) (*ProgressResult, error) {
	goal, err := s.authorize(goalID, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	result := &ProgressResult{Goal: *goal, MentionDates: []string{}}
	if len(entries) == 0 {
		return result, nil
	}

	goalText := goal.Title
	if goal.Description != "" {
		goalText += ": " + goal.Description
	}
	goalVec, err := s.embedder.Embed(ctx, goalText)
	if err != nil {
		return nil, fmt.Errorf("embed goal failed: %w", err)
	}

	candidates := make([][]float32, len(entries))
	for i := range entries {
		candidates[i] = entries[i].EmbeddingVector()
	}
	for _, m := range search.Above(goalVec, candidates, s.mentionThreshold) {
		result.MentionDates = append(result.MentionDates, entries[m.Index].Date)
	}
	result.MentionCount = len(result.MentionDates)
	return result, nil
}

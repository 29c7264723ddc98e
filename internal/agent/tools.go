package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mindscribe/internal/app"
	"mindscribe/internal/model"
)

// NewJournalRegistry wires every chat tool against the application services.
func NewJournalRegistry(
	entries *app.EntryService,
	goals *app.GoalService,
	teams *app.TeamService,
	cal *app.CalendarService,
) *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("save_journal_entry",
			"Save or replace the journal entry for a date.",
			`{"type":"object","properties":{"date":{"type":"string","description":"YYYY-MM-DD"},"content":{"type":"string"}},"required":["date","content"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Date    string `json:"date"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			entry, err := entries.Save(ctx, id.UserID, in.Date, in.Content)
			if err != nil {
				return "", err
			}
			return "Saved journal entry for " + entry.Date + ".", nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("get_journal_entry",
			"Fetch the journal entry for a date.",
			`{"type":"object","properties":{"date":{"type":"string","description":"YYYY-MM-DD"}},"required":["date"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Date string `json:"date"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			entry, err := entries.Get(id.UserID, in.Date)
			if err != nil {
				return "", err
			}
			return entry.Date + ":\n" + entry.Content, nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("list_journal_entries",
			"List the dates of all saved journal entries.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, id Identity, _ json.RawMessage) (string, error) {
			list, err := entries.List(id.UserID)
			if err != nil {
				return "", err
			}
			if len(list) == 0 {
				return "No journal entries yet.", nil
			}
			dates := make([]string, len(list))
			for i, e := range list {
				dates[i] = e.Date
			}
			return "Entries: " + strings.Join(dates, ", "), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("delete_journal_entry",
			"Delete the journal entry for a date.",
			`{"type":"object","properties":{"date":{"type":"string","description":"YYYY-MM-DD"}},"required":["date"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Date string `json:"date"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			if err := entries.Delete(id.UserID, in.Date); err != nil {
				return "", err
			}
			return "Deleted the entry for " + in.Date + ".", nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("search_journal_entries",
			"Semantic search over the user's journal entries.",
			`{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"}},"required":["query"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			results, err := entries.Search(ctx, id.UserID, in.Query, in.Limit)
			if err != nil {
				return "", err
			}
			return formatScoredEntries(results), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("summarize_journal_entries",
			"Summarize journal entries in a date range, optionally focused on a topic.",
			`{"type":"object","properties":{"start_date":{"type":"string"},"end_date":{"type":"string"},"topic":{"type":"string"}},"required":["start_date","end_date"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				StartDate string `json:"start_date"`
				EndDate   string `json:"end_date"`
				Topic     string `json:"topic"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			result, err := entries.Summarize(ctx, app.SummaryInput{
				UserID:    id.UserID,
				StartDate: in.StartDate,
				EndDate:   in.EndDate,
				Topic:     in.Topic,
			})
			if err != nil {
				return "", err
			}
			return result.Summary, nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("create_goal",
			"Create a personal goal.",
			`{"type":"object","properties":{"title":{"type":"string"},"description":{"type":"string"},"deadline":{"type":"string","description":"YYYY-MM-DD"}},"required":["title"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Deadline    string `json:"deadline"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			goal, err := goals.Create(app.CreateGoalInput{
				UserID:      id.UserID,
				Title:       in.Title,
				Description: in.Description,
				Deadline:    in.Deadline,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created goal #%d: %s.", goal.ID, goal.Title), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("list_goals",
			"List the user's personal goals.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, id Identity, _ json.RawMessage) (string, error) {
			list, err := goals.List(id.UserID)
			if err != nil {
				return "", err
			}
			return formatGoals(list), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("complete_goal",
			"Mark a goal as completed (or not).",
			`{"type":"object","properties":{"goal_id":{"type":"integer"},"completed":{"type":"boolean"}},"required":["goal_id"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				GoalID    uint  `json:"goal_id"`
				Completed *bool `json:"completed"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			completed := true
			if in.Completed != nil {
				completed = *in.Completed
			}
			goal, err := goals.SetCompleted(in.GoalID, id.UserID, completed)
			if err != nil {
				return "", err
			}
			if goal.Completed {
				return fmt.Sprintf("Marked %q as completed. Well done!", goal.Title), nil
			}
			return fmt.Sprintf("Reopened %q.", goal.Title), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("delete_goal",
			"Delete a goal.",
			`{"type":"object","properties":{"goal_id":{"type":"integer"}},"required":["goal_id"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				GoalID uint `json:"goal_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			if err := goals.Delete(in.GoalID, id.UserID); err != nil {
				return "", err
			}
			return "Goal deleted.", nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("check_goal_progress",
			"Check which journal entries mention a goal.",
			`{"type":"object","properties":{"goal_id":{"type":"integer"}},"required":["goal_id"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				GoalID uint `json:"goal_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			progress, err := goals.CheckProgress(ctx, in.GoalID, id.UserID)
			if err != nil {
				return "", err
			}
			if progress.MentionCount == 0 {
				return fmt.Sprintf("No journal entries mention %q yet.", progress.Goal.Title), nil
			}
			return fmt.Sprintf("%q is mentioned in %d entries: %s.",
				progress.Goal.Title, progress.MentionCount, strings.Join(progress.MentionDates, ", ")), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeTeam,
		Spec: spec("create_team_goal",
			"Create a goal for the team. Only the team lead may do this.",
			`{"type":"object","properties":{"title":{"type":"string"},"description":{"type":"string"},"deadline":{"type":"string","description":"YYYY-MM-DD"}},"required":["title"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Deadline    string `json:"deadline"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			goal, err := goals.Create(app.CreateGoalInput{
				UserID:      id.UserID,
				TeamID:      id.TeamID,
				Title:       in.Title,
				Description: in.Description,
				Deadline:    in.Deadline,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created team goal #%d: %s.", goal.ID, goal.Title), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeTeam,
		Spec: spec("list_team_goals",
			"List the team's goals.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, id Identity, _ json.RawMessage) (string, error) {
			list, err := goals.ListTeam(id.TeamID, id.UserID)
			if err != nil {
				return "", err
			}
			return formatGoals(list), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeTeam,
		Spec: spec("list_team_entries",
			"List journal entry dates across all team members.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, id Identity, _ json.RawMessage) (string, error) {
			ids, err := teams.MemberUserIDs(id.TeamID)
			if err != nil {
				return "", err
			}
			list, err := entries.ListAcrossUsers(ids)
			if err != nil {
				return "", err
			}
			if len(list) == 0 {
				return "The team has no journal entries yet.", nil
			}
			lines := make([]string, len(list))
			for i, e := range list {
				lines[i] = fmt.Sprintf("%s (member %d)", e.Date, e.UserID)
			}
			return "Team entries: " + strings.Join(lines, ", "), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeTeam,
		Spec: spec("search_team_entries",
			"Semantic search over all team members' journal entries.",
			`{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"}},"required":["query"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			ids, err := teams.MemberUserIDs(id.TeamID)
			if err != nil {
				return "", err
			}
			results, err := entries.SearchAcrossUsers(ctx, ids, in.Query, in.Limit)
			if err != nil {
				return "", err
			}
			return formatScoredEntries(results), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeTeam,
		Spec: spec("get_team_info",
			"Get the team's name and member list.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, id Identity, _ json.RawMessage) (string, error) {
			team, _, err := teams.Get(id.TeamID, id.UserID)
			if err != nil {
				return "", err
			}
			members, err := teams.Members(id.TeamID, id.UserID)
			if err != nil {
				return "", err
			}
			lines := make([]string, len(members))
			for i, m := range members {
				lines[i] = fmt.Sprintf("user %d (%s)", m.UserID, m.Role)
			}
			return fmt.Sprintf("Team %q with %d members: %s.", team.Name, len(members), strings.Join(lines, ", ")), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("create_calendar_event",
			"Create a Google Calendar event. Times are RFC3339.",
			`{"type":"object","properties":{"title":{"type":"string"},"description":{"type":"string"},"start":{"type":"string"},"end":{"type":"string"}},"required":["title","start"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Start       string `json:"start"`
				End         string `json:"end"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("bad arguments: %w", err)
			}
			start, err := time.Parse(time.RFC3339, in.Start)
			if err != nil {
				return "", fmt.Errorf("bad start time: %w", err)
			}
			var end time.Time
			if in.End != "" {
				if end, err = time.Parse(time.RFC3339, in.End); err != nil {
					return "", fmt.Errorf("bad end time: %w", err)
				}
			}
			event, err := cal.CreateEvent(ctx, id.UserID, app.EventInput{
				Title:       in.Title,
				Description: in.Description,
				Start:       start,
				End:         end,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created calendar event %q starting %s.", event.Summary, in.Start), nil
		},
	})

	r.Register(Tool{
		Scope: ScopePersonal,
		Spec: spec("list_calendar_events",
			"List upcoming Google Calendar events.",
			`{"type":"object","properties":{"limit":{"type":"integer"}},"required":[]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Limit int64 `json:"limit"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("bad arguments: %w", err)
				}
			}
			events, err := cal.ListEvents(ctx, id.UserID, in.Limit)
			if err != nil {
				return "", err
			}
			if len(events) == 0 {
				return "No upcoming events.", nil
			}
			lines := make([]string, len(events))
			for i, e := range events {
				when := ""
				if e.Start != nil {
					when = e.Start.DateTime
					if when == "" {
						when = e.Start.Date
					}
				}
				lines[i] = fmt.Sprintf("%s at %s", e.Summary, when)
			}
			return "Upcoming events: " + strings.Join(lines, "; "), nil
		},
	})

	r.Register(Tool{
		Scope: ScopeBoth,
		Spec: spec("get_current_date",
			"Get today's date.",
			`{"type":"object","properties":{}}`),
		Fn: func(ctx context.Context, _ Identity, _ json.RawMessage) (string, error) {
			return time.Now().Format("2006-01-02"), nil
		},
	})

	return r
}

func formatScoredEntries(results []app.ScoredEntry) string {
	if len(results) == 0 {
		return "No matching journal entries."
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s (similarity %.2f):\n%s", r.Entry.Date, r.Score, r.Entry.Content)
	}
	return strings.Join(lines, "\n---\n")
}

func formatGoals(list []model.Goal) string {
	if len(list) == 0 {
		return "No goals yet."
	}
	lines := make([]string, len(list))
	for i, g := range list {
		status := "open"
		if g.Completed {
			status = "completed"
		}
		line := fmt.Sprintf("#%d %s [%s]", g.ID, g.Title, status)
		if g.Deadline != "" {
			line += " due " + g.Deadline
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

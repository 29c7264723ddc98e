package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"mindscribe/internal/model"
)

var (
	ErrCalendarNotConnected = errors.New("calendar not connected")
	ErrBadOAuthState        = errors.New("invalid oauth state")
)

// Access tokens within this margin of expiry are refreshed before use.
const tokenRefreshBuffer = 5 * time.Minute

type CalendarTokenStore interface {
	Upsert(token *model.CalendarToken) error
	GetByUserID(userID uint) (*model.CalendarToken, error)
}

type CalendarService struct {
	store CalendarTokenStore
	oauth *oauth2.Config

	// refresh exchanges an expiring token for a fresh one. A field so tests
	// can exercise the buffer logic without Google's token endpoint.
	refresh func(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

func NewCalendarService(store CalendarTokenStore, clientID, clientSecret, redirectURL string) *CalendarService {
	s := &CalendarService{
		store: store,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
	}
	s.refresh = s.refreshWithOAuth
	return s
}

func (s *CalendarService) refreshWithOAuth(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	return s.oauth.TokenSource(ctx, tok).Token()
}

// ConnectURL builds the consent URL for the user. The user id rides in the
// state parameter because the callback arrives outside the authenticated
// session.
func (s *CalendarService) ConnectURL(userID uint) string {
	state := strconv.FormatUint(uint64(userID), 10)
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code and upserts the user's
// token row.
func (s *CalendarService) HandleCallback(ctx context.Context, state, code string) error {
	userID, err := strconv.ParseUint(strings.TrimSpace(state), 10, 64)
	if err != nil || userID == 0 {
		return ErrBadOAuthState
	}
	if strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("oauth code exchange failed: %w", err)
	}

	return s.store.Upsert(&model.CalendarToken{
		UserID:       uint(userID),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
}

func (s *CalendarService) Status(userID uint) (bool, time.Time, error) {
	if userID == 0 {
		return false, time.Time{}, ErrInvalidInput
	}
	row, err := s.store.GetByUserID(userID)
	if err != nil {
		return false, time.Time{}, err
	}
	if row == nil {
		return false, time.Time{}, nil
	}
	return true, row.Expiry, nil
}

// token returns a valid access token, refreshing lazily when the stored one
// is inside the refresh buffer and persisting the rotated credentials.
func (s *CalendarService) token(ctx context.Context, userID uint) (*oauth2.Token, error) {
	row, err := s.store.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrCalendarNotConnected
	}

	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		Expiry:       row.Expiry,
	}
	if time.Until(tok.Expiry) > tokenRefreshBuffer {
		return tok, nil
	}

	refreshed, err := s.refresh(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("refresh calendar token failed: %w", err)
	}
	if refreshed.AccessToken != row.AccessToken {
		if err := s.store.Upsert(&model.CalendarToken{
			UserID:       userID,
			AccessToken:  refreshed.AccessToken,
			RefreshToken: refreshed.RefreshToken,
			Expiry:       refreshed.Expiry,
		}); err != nil {
			return nil, err
		}
	}
	return refreshed, nil
}

type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

func (s *CalendarService) CreateEvent(ctx context.Context, userID uint, input EventInput) (*calendar.Event, error) {
	if userID == 0 || strings.TrimSpace(input.Title) == "" || input.Start.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.End.IsZero() {
		input.End = input.Start.Add(1 * time.Hour)
	}

	svc, err := s.client(ctx, userID)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Start:       &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339)},
	}
	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event failed: %w", err)
	}
	return created, nil
}

func (s *CalendarService) ListEvents(ctx context.Context, userID uint, maxResults int64) ([]*calendar.Event, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 10
	}

	svc, err := s.client(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := svc.Events.List("primary").
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendar events failed: %w", err)
	}
	return list.Items, nil
}

func (s *CalendarService) client(ctx context.Context, userID uint) (*calendar.Service, error) {
	tok, err := s.token(ctx, userID)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	if err != nil {
		return nil, fmt.Errorf("build calendar client failed: %w", err)
	}
	return svc, nil
}

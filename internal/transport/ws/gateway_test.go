package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscribe/internal/agent"
	"mindscribe/internal/pkg/jwtutil"
)

type fakeVerifier struct {
	userID uint
	err    error
}

func (f *fakeVerifier) ParseAccessToken(token string) (*jwtutil.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &jwtutil.Claims{UserID: f.userID}, nil
}

type fakeRunner struct {
	reply    string
	err      error
	gotID    agent.Identity
	gotInput string
	calls    int
}

func (f *fakeRunner) Run(ctx context.Context, id agent.Identity, userMessage string) (string, error) {
	f.calls++
	f.gotID = id
	f.gotInput = userMessage
	return f.reply, f.err
}

type fakeMembers struct {
	member bool
}

func (f *fakeMembers) IsMember(teamID, userID uint) (bool, error) {
	return f.member, nil
}

type frameRecorder struct {
	frames []interface{}
}

func (r *frameRecorder) send(v interface{}) error {
	r.frames = append(r.frames, v)
	return nil
}

func TestDispatchChatBeforeAuth(t *testing.T) {
	runner := &fakeRunner{reply: "hi"}
	g := NewGateway(&fakeVerifier{userID: 1}, runner, &fakeMembers{}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "chat", Message: "hello"})

	assert.False(t, closeConn)
	assert.Equal(t, 0, runner.calls)
	require.Len(t, rec.frames, 1)
	ef, ok := rec.frames[0].(errorFrame)
	require.True(t, ok)
	assert.Equal(t, "authenticate before chatting", ef.Message)
}

func TestDispatchAuthThenChat(t *testing.T) {
	runner := &fakeRunner{reply: "summary done"}
	g := NewGateway(&fakeVerifier{userID: 7}, runner, &fakeMembers{}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "auth", Token: "tok"})
	assert.False(t, closeConn)
	assert.True(t, s.Authenticated)
	assert.Equal(t, uint(7), s.UserID)

	closeConn = g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "chat", Message: "what did I write?"})
	assert.False(t, closeConn)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, agent.Identity{UserID: 7}, runner.gotID)
	assert.Equal(t, "what did I write?", runner.gotInput)

	require.Len(t, rec.frames, 2)
	mf, ok := rec.frames[1].(messageFrame)
	require.True(t, ok)
	assert.Equal(t, "summary done", mf.Content)
	assert.NotEmpty(t, mf.Timestamp)
}

func TestDispatchPersonalBadAuthStaysOpen(t *testing.T) {
	g := NewGateway(&fakeVerifier{err: errors.New("expired")}, &fakeRunner{}, &fakeMembers{}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "auth", Token: "bad"})

	assert.False(t, closeConn)
	assert.False(t, s.Authenticated)
	require.Len(t, rec.frames, 1)
	_, ok := rec.frames[0].(errorFrame)
	assert.True(t, ok)
}

func TestDispatchTeamBadAuthCloses(t *testing.T) {
	g := NewGateway(&fakeVerifier{err: errors.New("expired")}, &fakeRunner{}, &fakeMembers{}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "auth", Token: "bad", TeamID: 3})

	assert.True(t, closeConn)
	assert.False(t, s.Authenticated)
}

func TestDispatchTeamNonMemberCloses(t *testing.T) {
	g := NewGateway(&fakeVerifier{userID: 7}, &fakeRunner{}, &fakeMembers{member: false}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "auth", Token: "tok", TeamID: 3})

	assert.True(t, closeConn)
	assert.False(t, s.Authenticated)
}

func TestDispatchTeamAuthSetsIdentity(t *testing.T) {
	runner := &fakeRunner{reply: "ok"}
	g := NewGateway(&fakeVerifier{userID: 7}, runner, &fakeMembers{member: true}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "auth", Token: "tok", TeamID: 3})
	assert.False(t, closeConn)
	assert.Equal(t, uint(3), s.TeamID)

	g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "chat", Message: "standup"})
	assert.Equal(t, agent.Identity{UserID: 7, TeamID: 3}, runner.gotID)
}

func TestDispatchUnknownType(t *testing.T) {
	g := NewGateway(&fakeVerifier{userID: 1}, &fakeRunner{}, &fakeMembers{}, nil, nil)

	rec := &frameRecorder{}
	s := &Session{ID: "s1"}

	closeConn := g.dispatch(context.Background(), rec.send, s, clientFrame{Type: "ping"})

	assert.False(t, closeConn)
	require.Len(t, rec.frames, 1)
	ef, ok := rec.frames[0].(errorFrame)
	require.True(t, ok)
	assert.Equal(t, "unknown message type", ef.Message)
}

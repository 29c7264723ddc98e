// Package ws is the chat gateway: a connection authenticates once in-band,
// then every chat frame is forwarded to the agent and the reply relayed back.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mindscribe/internal/agent"
	"mindscribe/internal/model"
	"mindscribe/internal/pkg/jwtutil"
)

// Session is the per-connection state, owned exclusively by that
// connection's read loop.
type Session struct {
	ID            string
	UserID        uint
	TeamID        uint
	Authenticated bool
}

type clientFrame struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	TeamID  uint   `json:"team_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type authFrame struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	UserID uint   `json:"user_id"`
	TeamID uint   `json:"team_id,omitempty"`
}

type messageFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type TokenVerifier interface {
	ParseAccessToken(token string) (*jwtutil.Claims, error)
}

type Runner interface {
	Run(ctx context.Context, id agent.Identity, userMessage string) (string, error)
}

type MembershipChecker interface {
	IsMember(teamID, userID uint) (bool, error)
}

type TranscriptPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// HistoryInvalidator lets a chat turn flag the cached transcript as stale.
type HistoryInvalidator interface {
	MarkDirty(ctx context.Context, userID uint) error
	DeleteHistory(ctx context.Context, userID uint) error
}

type Gateway struct {
	verifier  TokenVerifier
	runner    Runner
	members   MembershipChecker
	publisher TranscriptPublisher
	history   HistoryInvalidator
	upgrader  websocket.Upgrader
}

func NewGateway(verifier TokenVerifier, runner Runner, members MembershipChecker, publisher TranscriptPublisher, history HistoryInvalidator) *Gateway {
	return &Gateway{
		verifier:  verifier,
		runner:    runner,
		members:   members,
		publisher: publisher,
		history:   history,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser origins are enforced by the CORS layer on the REST
			// surface; the gateway authenticates in-band instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and runs the connection's read loop.
func (g *Gateway) Handle(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := &Session{ID: uuid.NewString()}
	log.Printf("ws connection %s opened", session.ID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ws connection %s closed: %v", session.ID, err)
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			_ = conn.WriteJSON(errorFrame{Type: "error", Message: "malformed message"})
			continue
		}

		if closeConn := g.dispatch(c.Request.Context(), conn.WriteJSON, session, frame); closeConn {
			return
		}
	}
}

// dispatch handles one inbound frame against the session state machine and
// reports whether the connection should close.
func (g *Gateway) dispatch(ctx context.Context, send func(interface{}) error, s *Session, frame clientFrame) bool {
	switch frame.Type {
	case "auth":
		return g.handleAuth(send, s, frame)
	case "chat":
		g.handleChat(ctx, send, s, frame)
		return false
	default:
		_ = send(errorFrame{Type: "error", Message: "unknown message type"})
		return false
	}
}

func (g *Gateway) handleAuth(send func(interface{}) error, s *Session, frame clientFrame) bool {
	claims, err := g.verifier.ParseAccessToken(frame.Token)
	if err != nil {
		_ = send(errorFrame{Type: "error", Message: "authentication failed"})
		// Team chat closes on bad auth; personal chat lets the client retry
		// over the same connection.
		return frame.TeamID != 0
	}

	if frame.TeamID != 0 {
		ok, err := g.members.IsMember(frame.TeamID, claims.UserID)
		if err != nil || !ok {
			_ = send(errorFrame{Type: "error", Message: "not a member of this team"})
			return true
		}
	}

	s.UserID = claims.UserID
	s.TeamID = frame.TeamID
	s.Authenticated = true

	_ = send(authFrame{
		Type:   "auth",
		Status: "authenticated",
		UserID: s.UserID,
		TeamID: s.TeamID,
	})
	return false
}

func (g *Gateway) handleChat(ctx context.Context, send func(interface{}) error, s *Session, frame clientFrame) {
	if !s.Authenticated {
		_ = send(errorFrame{Type: "error", Message: "authenticate before chatting"})
		return
	}

	identity := agent.Identity{UserID: s.UserID, TeamID: s.TeamID}

	if g.history != nil {
		_ = g.history.MarkDirty(ctx, s.UserID)
		_ = g.history.DeleteHistory(ctx, s.UserID)
	}
	g.publishTranscript(ctx, s, "user", frame.Message)

	reply, err := g.runner.Run(ctx, identity, frame.Message)
	if err != nil {
		log.Printf("ws connection %s agent error: %v", s.ID, err)
		_ = send(errorFrame{Type: "error", Message: err.Error()})
		return
	}

	g.publishTranscript(ctx, s, "assistant", reply)
	_ = send(messageFrame{
		Type:      "message",
		Content:   reply,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (g *Gateway) publishTranscript(ctx context.Context, s *Session, role, content string) {
	if g.publisher == nil || content == "" {
		return
	}
	msg := model.TranscriptMessage{
		UserID:    s.UserID,
		TeamID:    s.TeamID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := g.publisher.Publish(ctx, msg); err != nil {
		log.Printf("ws connection %s transcript publish failed: %v", s.ID, err)
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/app"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/http/response"
)

type TeamHandler struct {
	teamService  *app.TeamService
	entryService *app.EntryService
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

func NewTeamHandler(teamService *app.TeamService, entryService *app.EntryService) *TeamHandler {
	return &TeamHandler{teamService: teamService, entryService: entryService}
}

func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	team, err := h.teamService.Create(userID, req.Name)
	if err != nil {
		writeTeamError(c, err, "create team failed")
		return
	}
	response.OK(c, team)
}

func (h *TeamHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	teams, err := h.teamService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list teams failed")
		return
	}
	response.OK(c, teams)
}

func (h *TeamHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	team, member, err := h.teamService.Get(teamID, userID)
	if err != nil {
		writeTeamError(c, err, "fetch team failed")
		return
	}
	response.OK(c, gin.H{"team": team, "role": member.Role})
}

func (h *TeamHandler) Members(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.teamService.Members(teamID, userID)
	if err != nil {
		writeTeamError(c, err, "list team members failed")
		return
	}
	response.OK(c, members)
}

func (h *TeamHandler) Join(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	member, err := h.teamService.Join(teamID, userID, req.InviteCode)
	if err != nil {
		writeTeamError(c, err, "join team failed")
		return
	}
	response.OK(c, member)
}

func (h *TeamHandler) Leave(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.teamService.Leave(teamID, userID); err != nil {
		writeTeamError(c, err, "leave team failed")
		return
	}
	response.OK(c, gin.H{"left": true})
}

// SearchEntries runs semantic search over every member's journal. Membership
// is verified before any entry is read.
func (h *TeamHandler) SearchEntries(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SearchEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	isMember, err := h.teamService.IsMember(teamID, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search team entries failed")
		return
	}
	if !isMember {
		response.Error(c, http.StatusForbidden, response.CodeForbidden, app.ErrNotTeamMember.Error())
		return
	}

	memberIDs, err := h.teamService.MemberUserIDs(teamID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search team entries failed")
		return
	}

	results, err := h.entryService.SearchAcrossUsers(c.Request.Context(), memberIDs, req.Query, req.Limit)
	if err != nil {
		writeEntryError(c, err, "search team entries failed")
		return
	}
	response.OK(c, results)
}

func writeTeamError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrTeamNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrBadInviteCode), errors.Is(err, app.ErrNotTeamMember), errors.Is(err, app.ErrLeadCannotLeave):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrAlreadyMember):
		response.Error(c, http.StatusBadRequest, response.CodeAlreadyMember, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

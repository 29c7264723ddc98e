package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/app"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/http/response"
)

type GoalHandler struct {
	goalService *app.GoalService
}

type CreateGoalRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	TeamID      uint   `json:"team_id"`
}

type CompleteGoalRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func NewGoalHandler(goalService *app.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	goal, err := h.goalService.Create(app.CreateGoalInput{
		UserID:      userID,
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeGoalError(c, err, "create goal failed")
		return
	}
	response.OK(c, goal)
}

func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	goals, err := h.goalService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list goals failed")
		return
	}
	response.OK(c, goals)
}

func (h *GoalHandler) ListTeam(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	goals, err := h.goalService.ListTeam(teamID, userID)
	if err != nil {
		writeGoalError(c, err, "list team goals failed")
		return
	}
	response.OK(c, goals)
}

func (h *GoalHandler) SetCompleted(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	goalID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CompleteGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	goal, err := h.goalService.SetCompleted(goalID, userID, *req.Completed)
	if err != nil {
		writeGoalError(c, err, "update goal failed")
		return
	}
	response.OK(c, goal)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	goalID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.goalService.Delete(goalID, userID); err != nil {
		writeGoalError(c, err, "delete goal failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *GoalHandler) CheckProgress(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	goalID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.goalService.CheckProgress(c.Request.Context(), goalID, userID)
	if err != nil {
		writeGoalError(c, err, "check goal progress failed")
		return
	}
	response.OK(c, result)
}

func writeGoalError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidDate):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrGoalNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrLeadOnly), errors.Is(err, app.ErrNotGoalOwner), errors.Is(err, app.ErrNotTeamMember):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// pathID parses a numeric path parameter, writing the error response itself
// on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

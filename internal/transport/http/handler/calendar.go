package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/app"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/http/response"
)

type CalendarHandler struct {
	calendarService *app.CalendarService
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end"`
}

func NewCalendarHandler(calendarService *app.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func (h *CalendarHandler) Connect(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}
	response.OK(c, gin.H{"url": h.calendarService.ConnectURL(userID)})
}

// Callback is hit by Google's redirect, so it is unauthenticated; the user id
// travels in the oauth state parameter.
func (h *CalendarHandler) Callback(c *gin.Context) {
	err := h.calendarService.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrBadOAuthState), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "calendar connection failed")
		}
		return
	}
	response.OK(c, gin.H{"connected": true})
}

func (h *CalendarHandler) Status(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	connected, expiry, err := h.calendarService.Status(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch calendar status failed")
		return
	}

	payload := gin.H{"connected": connected}
	if connected {
		payload["expiry"] = expiry.Format(time.RFC3339)
	}
	response.OK(c, payload)
}

func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "start must be RFC3339")
		return
	}
	var end time.Time
	if req.End != "" {
		end, err = time.Parse(time.RFC3339, req.End)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "end must be RFC3339")
			return
		}
	}

	event, err := h.calendarService.CreateEvent(c.Request.Context(), userID, app.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Start:       start,
		End:         end,
	})
	if err != nil {
		writeCalendarError(c, err, "create calendar event failed")
		return
	}
	response.OK(c, event)
}

func (h *CalendarHandler) ListEvents(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	events, err := h.calendarService.ListEvents(c.Request.Context(), userID, queryInt64(c, "limit"))
	if err != nil {
		writeCalendarError(c, err, "list calendar events failed")
		return
	}
	response.OK(c, events)
}

func writeCalendarError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrCalendarNotConnected):
		response.Error(c, http.StatusConflict, response.CodeCalendarOffline, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

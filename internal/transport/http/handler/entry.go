package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/app"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/http/response"
)

type EntryHandler struct {
	entryService *app.EntryService
}

type SaveEntryRequest struct {
	Date    string `json:"date" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type SearchEntriesRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

type SummaryRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Topic     string `json:"topic"`
}

func NewEntryHandler(entryService *app.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

func (h *EntryHandler) Save(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req SaveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	entry, err := h.entryService.Save(c.Request.Context(), userID, req.Date, req.Content)
	if err != nil {
		writeEntryError(c, err, "save entry failed")
		return
	}
	response.OK(c, entry)
}

func (h *EntryHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	entries, err := h.entryService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list entries failed")
		return
	}
	response.OK(c, entries)
}

func (h *EntryHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	entry, err := h.entryService.Get(userID, c.Param("date"))
	if err != nil {
		writeEntryError(c, err, "fetch entry failed")
		return
	}
	response.OK(c, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	if err := h.entryService.Delete(userID, c.Param("date")); err != nil {
		writeEntryError(c, err, "delete entry failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *EntryHandler) Search(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req SearchEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.entryService.Search(c.Request.Context(), userID, req.Query, req.Limit)
	if err != nil {
		writeEntryError(c, err, "search entries failed")
		return
	}
	response.OK(c, results)
}

func (h *EntryHandler) Summarize(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.entryService.Summarize(c.Request.Context(), app.SummaryInput{
		UserID:    userID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Topic:     req.Topic,
	})
	if err != nil {
		writeEntryError(c, err, "summarize entries failed")
		return
	}
	response.OK(c, result)
}

func writeEntryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidDate):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrEntryNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

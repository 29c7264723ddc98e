package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/app"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/http/response"
)

type ChatHandler struct {
	historyService *app.ChatHistoryService
}

func NewChatHandler(historyService *app.ChatHistoryService) *ChatHandler {
	return &ChatHandler{historyService: historyService}
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in token")
		return
	}

	messages, err := h.historyService.History(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch chat history failed")
		return
	}
	response.OK(c, messages)
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindscribe/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	mysqlStatus := h.checkMySQL(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()
	workerStatus := h.checkTranscriptWorker()

	allOK := mysqlStatus.OK && redisStatus.OK && rmqStatus.OK && workerStatus.OK
	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"mysql":             mysqlStatus,
			"redis":             redisStatus,
			"rabbitmq":          rmqStatus,
			"transcript_worker": workerStatus,
		},
		"reminder_scheduler": h.reminderInfo(),
	})
}

func (h *HealthHandler) checkTranscriptWorker() dependencyStatus {
	if h.app.TranscriptWorker == nil || !h.app.TranscriptWorker.Running() {
		return dependencyStatus{OK: false, Message: "not running"}
	}
	return dependencyStatus{OK: true}
}

// reminderInfo is informational only: a disabled scheduler is a config
// choice, not an unhealthy dependency.
func (h *HealthHandler) reminderInfo() gin.H {
	if h.app.ReminderScheduler == nil {
		return gin.H{"enabled": false}
	}
	info := gin.H{"enabled": true}
	if next := h.app.ReminderScheduler.NextRun(); !next.IsZero() {
		info["next_run"] = next.Format(time.RFC3339)
	}
	return info
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}

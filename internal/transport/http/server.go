package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mindscribe/internal/agent"
	"mindscribe/internal/ai"
	appsvc "mindscribe/internal/app"
	"mindscribe/internal/bootstrap"
	"mindscribe/internal/cache"
	rabbitmqClient "mindscribe/internal/platform/rabbitmq"
	"mindscribe/internal/repository"
	"mindscribe/internal/transport/http/handler"
	"mindscribe/internal/transport/http/middleware"
	"mindscribe/internal/transport/ws"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	entryRepo := repository.NewEntryRepository(app.MySQL)
	goalRepo := repository.NewGoalRepository(app.MySQL)
	teamRepo := repository.NewTeamRepository(app.MySQL)
	teamMemberRepo := repository.NewTeamMemberRepository(app.MySQL)
	calendarTokenRepo := repository.NewCalendarTokenRepository(app.MySQL)
	transcriptRepo := repository.NewTranscriptRepository(app.MySQL)

	refreshStore := cache.NewRefreshTokenStore(
		app.Redis,
		time.Duration(app.Config.Auth.RefreshTTLDays)*24*time.Hour,
	)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	llm := ai.NewBound(
		ai.NewClient(),
		ai.ChatConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.Model,
		},
		ai.EmbeddingConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.EmbeddingModel,
			Dim:     app.Config.LLM.EmbeddingDim,
		},
	)

	authService := appsvc.NewAuthService(
		userRepo,
		refreshStore,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	entryService := appsvc.NewEntryService(
		entryRepo,
		llm,
		llm,
		app.Config.Search.DefaultTopK,
		app.Config.Search.SummaryThreshold,
	)
	teamService := appsvc.NewTeamService(teamRepo, teamMemberRepo)
	goalService := appsvc.NewGoalService(
		goalRepo,
		teamService,
		entryRepo,
		llm,
		app.Config.Search.MentionThreshold,
	)
	calendarService := appsvc.NewCalendarService(
		calendarTokenRepo,
		app.Config.OAuth.GoogleClientID,
		app.Config.OAuth.GoogleClientSecret,
		app.Config.OAuth.GoogleRedirectURL,
	)
	historyService := appsvc.NewChatHistoryService(transcriptRepo, historyCache)

	registry := agent.NewJournalRegistry(entryService, goalService, teamService, calendarService)
	journalAgent := agent.New(llm, registry, app.Config.LLM.MaxToolIterations)

	transcriptPublisher := rabbitmqClient.NewQueuePublisher(app.MQConn, app.Config.RabbitMQ.TranscriptQueue)
	gateway := ws.NewGateway(authService, journalAgent, teamService, transcriptPublisher, historyCache)
	router.GET("/ws", gateway.Handle)

	authHandler := handler.NewAuthHandler(authService)
	entryHandler := handler.NewEntryHandler(entryService)
	goalHandler := handler.NewGoalHandler(goalService)
	teamHandler := handler.NewTeamHandler(teamService, entryService)
	calendarHandler := handler.NewCalendarHandler(calendarService)
	chatHandler := handler.NewChatHandler(historyService)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.Register)
	authGroup.POST("/signin", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.GET("/me", authJWT, authHandler.Me)

	entryGroup := v1.Group("/entries")
	entryGroup.Use(authJWT)
	entryGroup.POST("", entryHandler.Save)
	entryGroup.GET("", entryHandler.List)
	entryGroup.GET("/:date", entryHandler.Get)
	entryGroup.DELETE("/:date", entryHandler.Delete)
	entryGroup.POST("/search", entryHandler.Search)
	entryGroup.POST("/summary", entryHandler.Summarize)

	goalGroup := v1.Group("/goals")
	goalGroup.Use(authJWT)
	goalGroup.POST("", goalHandler.Create)
	goalGroup.GET("", goalHandler.List)
	goalGroup.PUT("/:id/complete", goalHandler.SetCompleted)
	goalGroup.GET("/:id/progress", goalHandler.CheckProgress)
	goalGroup.DELETE("/:id", goalHandler.Delete)

	teamGroup := v1.Group("/teams")
	teamGroup.Use(authJWT)
	teamGroup.POST("", teamHandler.Create)
	teamGroup.GET("", teamHandler.List)
	teamGroup.GET("/:id", teamHandler.Get)
	teamGroup.GET("/:id/members", teamHandler.Members)
	teamGroup.POST("/:id/join", teamHandler.Join)
	teamGroup.POST("/:id/leave", teamHandler.Leave)
	teamGroup.GET("/:id/goals", goalHandler.ListTeam)
	teamGroup.POST("/:id/entries/search", teamHandler.SearchEntries)

	calendarGroup := v1.Group("/calendar")
	calendarGroup.GET("/callback", calendarHandler.Callback)
	calendarGroup.GET("/connect", authJWT, calendarHandler.Connect)
	calendarGroup.GET("/status", authJWT, calendarHandler.Status)
	calendarGroup.POST("/events", authJWT, calendarHandler.CreateEvent)
	calendarGroup.GET("/events", authJWT, calendarHandler.ListEvents)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(authJWT)
	chatGroup.GET("/history", chatHandler.GetHistory)

	return router
}

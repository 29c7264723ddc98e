package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mindscribe/internal/config"
	"mindscribe/internal/model"
	mysqlClient "mindscribe/internal/platform/mysql"
	rabbitmqClient "mindscribe/internal/platform/rabbitmq"
	redisClient "mindscribe/internal/platform/redis"
	"mindscribe/internal/repository"
	"mindscribe/internal/scheduler"
	"mindscribe/internal/worker"
)

type App struct {
	Config            *config.Config
	MySQL             *gorm.DB
	Redis             *redis.Client
	MQConn            *amqp.Connection
	TranscriptWorker  *worker.TranscriptWorker
	ReminderScheduler *scheduler.ReminderScheduler

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Entry{},
		&model.Goal{},
		&model.Team{},
		&model.TeamMember{},
		&model.CalendarToken{},
		&model.TranscriptMessage{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	transcriptRepo := repository.NewTranscriptRepository(mysqlDB)
	transcriptWorker := worker.NewTranscriptWorker(mqConn, transcriptRepo, cfg.RabbitMQ.TranscriptQueue)
	if err := transcriptWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcript worker failed: %w", err)
	}

	var reminderScheduler *scheduler.ReminderScheduler
	if cfg.Reminder.Enabled {
		goalRepo := repository.NewGoalRepository(mysqlDB)
		reminderPublisher := rabbitmqClient.NewQueuePublisher(mqConn, cfg.RabbitMQ.ReminderQueue)
		reminderScheduler = scheduler.NewReminderScheduler(goalRepo, reminderPublisher, cfg.Reminder.WindowHours)
		if err := reminderScheduler.Start(cfg.Reminder.CronSpec); err != nil {
			return nil, fmt.Errorf("start reminder scheduler failed: %w", err)
		}
	}

	return &App{
		Config:            cfg,
		MySQL:             mysqlDB,
		Redis:             redisCli,
		MQConn:            mqConn,
		TranscriptWorker:  transcriptWorker,
		ReminderScheduler: reminderScheduler,
		StartedAt:         time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ReminderScheduler != nil {
		a.ReminderScheduler.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/cmd/api/router/v1"
	"github.com/Slim-LARIBI/whatsapp-project/internal/config"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/bus"
	cacheadapter "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/cache/adapter"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/database"
	queueadapter "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/adapter"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/ai"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/idempotency"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/task"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	pgadapter "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/adapter"
	httpHandler "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/presentation/http"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/transport"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Warnf(".env file not found or could not be loaded: %v", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer pool.Close()

	cache, err := cacheadapter.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("connect to redis")
	}
	defer cache.Close()

	queueClient, err := queueadapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("create queue client")
	}
	defer queueClient.Close()

	queueServer, err := queueadapter.NewAsynqServer(
		cfg.RedisURL,
		cfg.WorkerConcurrency,
		log,
		task.SendMessageTaskType,
		task.ClassifyTaskType,
		task.NotifyTaskType,
	)
	if err != nil {
		log.WithError(err).Fatal("create queue server")
	}

	// Optional collaborators: a missing AMQP URL or AI provider leaves the
	// corresponding worker running as a no-op.
	var publisher bus.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = bus.New(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.WithError(err).Fatal("connect to event bus")
		}
		defer publisher.Close()
	}

	var classifier ai.Classifier
	if cfg.AIProvider == "openai" {
		classifier = ai.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIModel)
	}

	accounts := pgadapter.NewPgAccountRepository(pool)
	contacts := pgadapter.NewPgContactRepository(pool)
	conversations := pgadapter.NewPgConversationRepository(pool)
	messages := pgadapter.NewPgMessageRepository(pool)

	graph := transport.NewGraphClient(cfg.GraphBaseURL, nil)
	hub := realtime.NewHub(log)
	defer hub.Close()

	admission := idempotency.NewAdmission(cache, idempotency.DefaultTTL)

	processWebhook := usecase.NewProcessWebhookUseCase(
		admission, accounts, contacts, conversations, messages, queueClient, hub, log,
	)
	sendReply := usecase.NewSendAgentReplyUseCase(
		conversations, messages, queueClient, hub, contacts.GetPhone,
	)
	assign := usecase.NewAssignConversationUseCase(conversations, hub)
	updateStatus := usecase.NewUpdateConversationStatusUseCase(conversations, hub)

	task.RegisterSendMessageTask(queueServer, accounts, conversations, messages, graph, hub, log)
	task.RegisterClassifyTask(queueServer, classifier, conversations, hub, log)
	task.RegisterNotifyTask(queueServer, publisher, log)

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, httpHandler.Deps{
		ProcessWebhook: processWebhook,
		SendReply:      sendReply,
		Assign:         assign,
		UpdateStatus:   updateStatus,
		Hub:            hub,
		VerifyToken:    cfg.WebhookVerifyToken,
		AppSecret:      cfg.WebhookAppSecret,
		Log:            log,
	})

	// Workers run in-process so realtime events from jobs reach connected
	// sockets directly.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- queueServer.Run(workerCtx)
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}

	stopWorkers()
	if err := <-workerDone; err != nil {
		log.WithError(err).Error("worker shutdown")
	}
}

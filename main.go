package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"courses-backend/access"
	"courses-backend/config"
	"courses-backend/db"
	"courses-backend/handlers/courses"
	"courses-backend/handlers/lessons"
	"courses-backend/handlers/payments"
	"courses-backend/handlers/ping"
	"courses-backend/handlers/stripe"
	"courses-backend/handlers/subscriptions"
	"courses-backend/handlers/users"
	"courses-backend/middleware"
	"courses-backend/notifications"
	"courses-backend/routes"
	"courses-backend/utils"
	"courses-backend/validators"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const memoryQueueSize = 1024

// @title Courses Backend API
// @version 1.0
// @description API de gestion des cours, leçons, paiements et abonnements
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Entrez le JWT avec le préfixe Bearer: Bearer <JWT>
func main() {
	mode := flag.String("mode", "", "api, worker or all (overrides MODE)")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	if *mode != "" {
		os.Setenv("MODE", *mode)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Erreur de configuration: ", err)
	}

	utils.InitLogger(cfg.LogDir)
	gin.SetMode(gin.ReleaseMode)

	if err := db.InitDB(cfg.DBURL); err != nil {
		log.Fatal("Erreur lors de la connexion à la base de données: ", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	var queue notifications.Queue
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Erreur lors de la connexion à Redis: ", err)
		}
		redisQueue := notifications.NewRedisQueue(redisClient, cfg.QueueKey, 5*time.Second)
		if cfg.RunsWorker() {
			if n, err := redisQueue.Recover(ctx); err != nil {
				utils.LogError(err, "Unable to recover in-flight notification tasks")
			} else if n > 0 {
				utils.LogInfo(fmt.Sprintf("Recovered %d in-flight notification tasks", n))
			}
		}
		queue = redisQueue
	} else {
		if cfg.Mode != config.ModeAll {
			log.Fatal("REDIS_ADDR est requis quand l'API et le worker tournent séparément")
		}
		utils.LogWarn("REDIS_ADDR not set, notification tasks are kept in memory")
		queue = notifications.NewMemoryQueue(memoryQueueSize, time.Second)
	}

	var wg sync.WaitGroup

	if cfg.RunsWorker() {
		mailer, err := utils.NewMailer(utils.MailConfig{
			Provider:       cfg.MailProvider,
			SMTPHost:       cfg.SMTPHost,
			SMTPPort:       cfg.SMTPPort,
			SMTPUser:       cfg.SMTPUser,
			SMTPPassword:   cfg.SMTPPassword,
			SendgridAPIKey: cfg.SendgridAPIKey,
		})
		if err != nil {
			log.Fatal("Erreur lors de la configuration des mails: ", err)
		}

		dispatcher := notifications.NewDispatcher(notifications.GormRepository{}, mailer, cfg.MailFrom)
		worker := &notifications.Worker{Queue: queue, Handle: dispatcher.Handle}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				utils.LogError(err, "Notification worker exited")
			}
		}()
	}

	if cfg.RunsAPI() {
		runAPI(ctx, cfg, queue, redisClient)
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	utils.LogInfo("Shutdown complete")
}

func runAPI(ctx context.Context, cfg config.Config, queue notifications.Enqueuer, redisClient *redis.Client) {
	engine := access.NewEngine(access.GormLessonStore{})
	links := validators.NewLinksValidator(cfg.VideoHosts()...)

	// nil interfaces when a provider is not configured, the handlers answer 503
	var uploader utils.ImageUploader
	if u, err := utils.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret); err != nil {
		utils.LogWarn("Cloudinary non configuré, l'envoi des aperçus est désactivé: " + err.Error())
	} else {
		uploader = u
	}

	var checkout utils.CheckoutInitiator
	if cfg.StripeSecretKey != "" {
		checkout = utils.NewStripeCheckout(cfg.StripeSecretKey)
	} else {
		utils.LogWarn("STRIPE_SECRET_KEY not set, checkout is disabled")
	}

	r := routes.SetupRouter(routes.Handlers{
		Ping:          ping.New(),
		Courses:       courses.New(engine, links, queue, uploader),
		Lessons:       lessons.New(engine, links, queue, uploader),
		Payments:      payments.New(engine),
		Subscriptions: subscriptions.New(engine),
		Users:         users.New(engine),
		Stripe: stripe.New(checkout, stripe.Config{
			Currency:      cfg.CheckoutCurrency,
			SuccessURL:    cfg.CheckoutSuccessURL,
			CancelURL:     cfg.CheckoutCancelURL,
			WebhookSecret: cfg.StripeWebhookSecret,
		}),
	}, routes.Options{
		JWTSecret:          []byte(cfg.JWTSecret),
		Limiter:            middleware.NewRateLimiter(redisClient),
		CheckoutRateLimit:  cfg.CheckoutRateLimit,
		CheckoutRateWindow: cfg.CheckoutRateWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		utils.LogInfo("HTTP server listening on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Erreur lors du démarrage du serveur: ", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "HTTP server shutdown failed")
	}
}

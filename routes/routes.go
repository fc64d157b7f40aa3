package routes

import (
	"time"

	"courses-backend/handlers/courses"
	"courses-backend/handlers/lessons"
	"courses-backend/handlers/payments"
	"courses-backend/handlers/ping"
	"courses-backend/handlers/stripe"
	"courses-backend/handlers/subscriptions"
	"courses-backend/handlers/users"
	"courses-backend/middleware"
	"courses-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups every resource handler mounted by SetupRouter
type Handlers struct {
	Ping          *ping.Handler
	Courses       *courses.Handler
	Lessons       *lessons.Handler
	Payments      *payments.Handler
	Subscriptions *subscriptions.Handler
	Users         *users.Handler
	Stripe        *stripe.Handler
}

type Options struct {
	JWTSecret          []byte
	Limiter            *middleware.RateLimiter
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration
}

func SetupRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(utils.LogWriter()), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Pour autoriser toutes les origines en dev
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.JWTAuth(opts.JWTSecret)
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewRateLimiter(nil)
	}

	PingRoutes(r, h.Ping)
	CoursesRoutes(r, h.Courses, auth)
	LessonsRoutes(r, h.Lessons, auth)
	PaymentsRoutes(r, h.Payments, auth)
	SubscriptionsRoutes(r, h.Subscriptions, auth)
	UsersRoutes(r, h.Users, auth)
	StripeRoutes(r, h.Stripe, auth, opts.Limiter.Limit("checkout", opts.CheckoutRateLimit, opts.CheckoutRateWindow))

	return r
}

// Package server assembles repositories, services and handlers into the
// HTTP router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/config"
	"studiohub/internal/jobs"
	"studiohub/internal/middleware"
	"studiohub/internal/modules/attendance"
	"studiohub/internal/modules/auth"
	"studiohub/internal/modules/catalog"
	"studiohub/internal/modules/course"
	"studiohub/internal/modules/dashboard"
	"studiohub/internal/modules/enrollment"
	"studiohub/internal/modules/identity"
	"studiohub/internal/modules/invitation"
	"studiohub/internal/modules/payment"
	"studiohub/internal/modules/user"
	"studiohub/internal/pkg/events"
	"studiohub/internal/pkg/jwt"
	"studiohub/internal/pkg/response"
	"studiohub/internal/pkg/stripe"
	"studiohub/internal/repository"
)

// Processor is the card payment provider. *stripe.Client implements it.
type Processor interface {
	CreateIntent(ctx context.Context, p stripe.IntentParams) (*stripe.Intent, error)
	GetIntent(ctx context.Context, id string) (*stripe.Intent, error)
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.Event, error)
}

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Publisher events.Publisher
	Processor Processor
}

// App is the assembled application: the router plus the background work
// that shares its services.
type App struct {
	Router     *gin.Engine
	Reconciler *jobs.Reconciler
}

func New(d Deps) *App {
	cfg := d.Config
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}

	identityRepo := repository.NewIdentityRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	studioRepo := repository.NewStudioRepository(d.DB)
	branchRepo := repository.NewBranchRepository(d.DB)
	roomRepo := repository.NewRoomRepository(d.DB)
	classRepo := repository.NewClassRepository(d.DB)
	enrollmentRepo := repository.NewEnrollmentRepository(d.DB)
	paymentRepo := repository.NewPaymentRepository(d.DB)
	attendanceRepo := repository.NewAttendanceRepository(d.DB)

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	identitySvc := identity.NewService(identityRepo, d.Log.Named("identity"))

	invitationSvc := invitation.NewService(invitation.Config{
		Secret:      cfg.InviteSecret,
		Issuer:      cfg.InviteIssuer,
		Audience:    cfg.InviteAudience,
		TTL:         cfg.InviteTTL,
		FrontendURL: cfg.FrontendURL,
	}, userRepo, studioRepo, identitySvc, tokens, d.Publisher, d.Log.Named("invitation"))
	authSvc := auth.NewService(identityRepo, userRepo, studioRepo, identitySvc, tokens, invitationSvc, d.Log.Named("auth"))
	userSvc := user.NewService(userRepo, studioRepo, enrollmentRepo, identitySvc, d.Log.Named("user"))
	catalogSvc := catalog.NewService(studioRepo, branchRepo, roomRepo, userRepo, identitySvc, tokens, d.Log.Named("catalog"))
	courseSvc := course.NewService(classRepo, userRepo, roomRepo, d.Log.Named("course"))
	paymentSvc := payment.NewService(paymentRepo, enrollmentRepo, d.Processor, d.Publisher,
		payment.Config{Currency: cfg.PaymentCurrency}, d.Log.Named("payment"))
	enrollmentSvc := enrollment.NewService(enrollmentRepo, classRepo, userRepo, paymentSvc, d.Publisher, d.Log.Named("enrollment"))
	attendanceSvc := attendance.NewService(attendanceRepo, classRepo, enrollmentRepo, d.Log.Named("attendance"))
	dashboardSvc := dashboard.NewService(userRepo, classRepo, enrollmentRepo, paymentRepo, d.Log.Named("dashboard"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(d.Log), middleware.CORS(cfg.FrontendURL, cfg.CORSAllowedOrigins))

	r.GET("/health", health(d.DB))
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	authHandler := auth.NewHandler(authSvc, d.Log)
	invitationHandler := invitation.NewHandler(invitationSvc, d.Log)
	catalogHandler := catalog.NewHandler(catalogSvc, d.Log)
	paymentHandler := payment.NewHandler(paymentSvc, d.Log)

	api := r.Group("/api")
	{
		authHandler.RegisterPublicRoutes(api)
		invitationHandler.RegisterPublicRoutes(api)
		catalogHandler.RegisterPublicRoutes(api)
		paymentHandler.RegisterPublicRoutes(api)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	{
		authHandler.RegisterProtectedRoutes(protected)
		invitationHandler.RegisterProtectedRoutes(protected)
		catalogHandler.RegisterProtectedRoutes(protected)
		paymentHandler.RegisterProtectedRoutes(protected)
		user.NewHandler(userSvc, d.Log).RegisterRoutes(protected)
		course.NewHandler(courseSvc, d.Log).RegisterRoutes(protected)
		enrollment.NewHandler(enrollmentSvc, d.Log).RegisterRoutes(protected)
		attendance.NewHandler(attendanceSvc, d.Log).RegisterRoutes(protected)
		dashboard.NewHandler(dashboardSvc, d.Log).RegisterRoutes(protected)
	}

	reconciler := jobs.NewReconciler(paymentSvc, enrollmentSvc, jobs.Config{
		PendingPaymentMaxAge: cfg.PendingPaymentMaxAge,
		OverdueAfter:         cfg.PaymentOverdueAfter,
	}, d.Log.Named("jobs"))

	// Operator endpoints stay unmounted until a token is configured.
	if cfg.InternalAPIToken != "" {
		internal := r.Group("/internal", middleware.InternalTokenAuth(cfg.InternalAPIToken, cfg.InternalAllowedIPs, d.Log))
		jobs.NewHandler(reconciler, d.Log).RegisterRoutes(internal)
	}

	return &App{Router: r, Reconciler: reconciler}
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Database is unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

package router

import (
	"net/http"

	"github.com/campus-canteen/api/internal/audit"
	"github.com/campus-canteen/api/internal/config"
	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/enum"
	"github.com/campus-canteen/api/internal/handler"
	mw "github.com/campus-canteen/api/internal/middleware"
	"github.com/campus-canteen/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// New creates a Chi router with all application routes wired up. Customer
// endpoints (catalog, checkout, tracking) are public; everything else sits
// behind JWT auth with role checks.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, recorder *audit.Recorder) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"https://canteen.campus.test",
			"https://staff.canteen.campus.test",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		deliveryFee = decimal.NewFromInt(5)
	}
	checkoutService := service.NewCheckoutService(
		pool,
		func(db database.DBTX) service.CheckoutStore {
			return database.New(db)
		},
		deliveryFee,
		int32(cfg.FreeDeliveryMinQty),
	)
	statusService := service.NewStatusService(queries)

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	menuHandler := handler.NewMenuHandler(queries, recorder)
	orderHandler := handler.NewOrderHandler(checkoutService, statusService, queries, recorder)
	userHandler := handler.NewUserHandler(queries, recorder)
	reportHandler := handler.NewReportHandler(queries)
	auditHandler := handler.NewAuditHandler(queries)

	r.Route("/api", func(r chi.Router) {
		// Public routes: customers browse and order without accounts.
		authHandler.RegisterRoutes(r)
		menuHandler.RegisterPublicRoutes(r)
		orderHandler.RegisterPublicRoutes(r)

		// Staff routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleStaff, enum.UserRoleAdmin))

			menuHandler.RegisterStaffRoutes(r)
			orderHandler.RegisterStaffRoutes(r)
			reportHandler.RegisterRoutes(r)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler.RegisterRoutes(r)
			auditHandler.RegisterRoutes(r)
		})
	})

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/config"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/handler"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	mw "github.com/HaikalHH/mugifumiapp-sub000/internal/middleware"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payout"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/ws"
)

// Services groups the business services served by the router.
type Services struct {
	Products   handler.ProductServicer
	Orders     handler.OrderServicer
	Inventory  handler.InventoryServicer
	Deliveries handler.DeliveryServicer
	Webhooks   handler.WebhookServicer
}

// NewServices builds every service over db. Each service gets a store
// factory so it can bind queries to the pool or to a transaction.
func NewServices(db service.DB, gateway service.Gateway, fees *payout.Table, cfg *config.Config, deps service.Deps) Services {
	locations := cfg.App.NormalizedLocations()
	return Services{
		Products: service.NewProductService(db, func(db database.DBTX) service.ProductStore {
			return database.New(db)
		}, deps),
		Orders: service.NewOrderService(db, func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}, gateway, service.OrderServiceConfig{
			Locations:     locations,
			ExpiryMinutes: cfg.Payment.ExpiryMinutes,
		}, deps),
		Inventory: service.NewInventoryService(db, func(db database.DBTX) service.InventoryStore {
			return database.New(db)
		}, locations, deps),
		Deliveries: service.NewDeliveryService(db, func(db database.DBTX) service.DeliveryStore {
			return database.New(db)
		}, locations, deps),
		Webhooks: service.NewWebhookService(db, func(db database.DBTX) service.WebhookStore {
			return database.New(db)
		}, fees, cfg.Payment.ServerKey, deps),
	}
}

// Deps are the runtime collaborators of the HTTP layer.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Hub      *ws.Hub
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Fulfillment
	// Guard is nil when no idempotency store is configured.
	Guard    handler.WebhookGuard
	Services Services
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(d Deps) chi.Router {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.Logging(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Gateway notifications authenticate by signature.
	handler.NewPaymentHandler(d.Services.Webhooks, d.Guard, d.Metrics, d.Logger).RegisterRoutes(r)

	// Browsers cannot set headers on a WebSocket handshake, so the token may
	// come in the query string.
	if d.Hub != nil {
		r.With(
			mw.QueryToken,
			mw.Authenticate(cfg.JWT.Secret),
			mw.RequireLocation(func(r *http.Request) string { return chi.URLParam(r, "location") }),
		).Get("/ws/locations/{location}/events", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(d.Hub, d.Logger, w, r)
		})
	}

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWT.Secret))

		handler.NewProductHandler(d.Services.Products, d.Logger).RegisterRoutes(r)
		handler.NewOrderHandler(d.Services.Orders, d.Logger).RegisterRoutes(r)
		handler.NewDeliveryHandler(d.Services.Deliveries, d.Logger).RegisterRoutes(r)
		handler.NewInventoryHandler(d.Services.Inventory, d.Logger).RegisterRoutes(r)
	})

	return r
}

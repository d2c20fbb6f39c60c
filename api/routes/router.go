package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tastebite/tastebite-backend/api/controllers"
	"github.com/tastebite/tastebite-backend/api/middleware"
	"github.com/tastebite/tastebite-backend/pkg/config"
	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/logger"
	pkgredis "github.com/tastebite/tastebite-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *pkgredis.Client
	Cart    controllers.CartService
	Catalog controllers.CatalogService
	Orders  controllers.OrderService
	Chkout  controllers.CheckoutService
	Metrics prometheus.Gatherer
}

// NewRouter assembles the HTTP surface: public menu and health, the
// session-scoped cart/order routes, and the admin catalog routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.DB, d.Redis))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Get("/api/menu", controllers.MenuList(d.Catalog, d.Logger))

	session := middleware.Session(d.Config.Session, d.Logger)

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(session)
		r.Get("/", controllers.CartList(d.Cart, d.Logger))
		r.Post("/", controllers.CartAdd(d.Cart, d.Logger))
		r.Get("/summary", controllers.CartSummary(d.Cart, d.Logger))
		r.Patch("/{id}", controllers.CartSetQuantity(d.Cart, d.Logger))
		r.Delete("/{id}", controllers.CartRemove(d.Cart, d.Logger))
		r.Delete("/", controllers.CartClear(d.Cart, d.Logger))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(session)
		var idem pkgredis.IdempotencyStore
		if d.Redis != nil {
			idem = d.Redis
		}
		r.With(middleware.Idempotency(idem, d.Config.Checkout.IdempotencyTTL, d.Logger)).
			Post("/checkout", controllers.OrdersCheckout(d.Chkout, d.Logger))
		r.Get("/", controllers.OrdersList(d.Orders, d.Logger))
		r.Get("/draft/latest", controllers.OrdersLatestDraft(d.Orders, d.Logger))
		r.Get("/{id}", controllers.OrdersGet(d.Orders, d.Logger))
		r.Post("/{id}/confirm", controllers.OrdersConfirm(d.Orders, d.Logger))
		r.Post("/{id}/rebuild_cart", controllers.OrdersRebuildCart(d.Orders, d.Logger))
	})

	r.Route("/api/admin/menu", func(r chi.Router) {
		r.Use(session, middleware.RequireAdmin(d.Logger))
		r.Patch("/{id}/stock", controllers.AdminSetStock(d.Catalog, d.Logger))
		r.Patch("/{id}/price", controllers.AdminAdjustPrice(d.Catalog, d.Logger))
	})

	return r
}

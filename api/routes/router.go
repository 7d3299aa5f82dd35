package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/closurehq/laser-backend/api/controllers"
	"github.com/closurehq/laser-backend/api/middleware"
	"github.com/closurehq/laser-backend/internal/auth"
	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/internal/locations"
	"github.com/closurehq/laser-backend/internal/lookups"
	"github.com/closurehq/laser-backend/internal/notifications"
	"github.com/closurehq/laser-backend/internal/offers"
	"github.com/closurehq/laser-backend/internal/pricing"
	"github.com/closurehq/laser-backend/internal/shipments"
	"github.com/closurehq/laser-backend/internal/transactions"
	"github.com/closurehq/laser-backend/internal/trips"
	"github.com/closurehq/laser-backend/internal/users"
	"github.com/closurehq/laser-backend/pkg/auth/session"
	"github.com/closurehq/laser-backend/pkg/config"
	"github.com/closurehq/laser-backend/pkg/db"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Deals         deals.Service
	Shipments     shipments.Service
	Trips         trips.Service
	Offers        offers.Service
	Transactions  transactions.Service
	Notifications notifications.Service
	Locations     locations.Service
	Lookups       lookups.Service
	Pricing       pricing.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.UserProfile(svcs.Users, logg))
			r.Patch("/me/connection", controllers.UserConnectionPatch(svcs.Users, logg))
			r.Get("/{applicationId}", controllers.UserProfileByID(svcs.Users, logg))
			r.Post("/{applicationId}/rating", controllers.UserRate(svcs.Users, logg))
		})

		r.Route("/v1/deals", func(r chi.Router) {
			r.Get("/", controllers.DealList(svcs.Deals, logg))
			r.Get("/recent-shipments", controllers.DealRecentShipments(svcs.Deals, logg))
			r.Get("/recent-trips", controllers.DealRecentTrips(svcs.Deals, logg))
			r.Get("/search-trips", controllers.DealSearchTrips(svcs.Deals, logg))
			r.Get("/search-shipments", controllers.DealSearchShipments(svcs.Deals, logg))
			r.Post("/{shipmentDealId}/finalize/{tripDealId}", controllers.DealFinalize(svcs.Deals, logg))
			r.Get("/{dealId}", controllers.DealGet(svcs.Deals, logg))
			r.Get("/{dealId}/shipments", controllers.DealShipments(svcs.Deals, logg))
			r.Get("/{dealId}/transactions", controllers.TransactionListByDeal(svcs.Transactions, logg))
			r.Patch("/{dealId}/status", controllers.DealUpdateStatus(svcs.Deals, logg))
			r.Delete("/{dealId}", controllers.DealDelete(svcs.Deals, logg))
			r.Delete("/{dealId}/shipments/{shipmentId}", controllers.DealRemoveShipment(svcs.Deals, logg))
		})

		r.Route("/v1/shipments", func(r chi.Router) {
			r.With(middleware.RequireApplication(logg)).Post("/", controllers.ShipmentCreateBatch(svcs.Shipments, logg))
			r.Get("/", controllers.ShipmentList(svcs.Shipments, logg))
			r.Get("/search", controllers.ShipmentSearch(svcs.Shipments, logg))
			r.Get("/{shipmentId}", controllers.ShipmentGet(svcs.Shipments, logg))
		})

		r.Route("/v1/trips", func(r chi.Router) {
			r.With(middleware.RequireApplication(logg)).Post("/", controllers.TripCreate(svcs.Trips, logg))
			r.Get("/", controllers.TripList(svcs.Trips, logg))
			r.Get("/search", controllers.TripSearch(svcs.Trips, logg))
			r.Get("/{tripId}", controllers.TripGet(svcs.Trips, logg))
			r.Get("/{tripId}/deals", controllers.TripDeals(svcs.Trips, logg))
		})

		r.Route("/v1/offers", func(r chi.Router) {
			r.Use(middleware.RequireApplication(logg))
			r.Post("/", controllers.OfferCreate(svcs.Offers, logg))
			r.Get("/mine", controllers.OfferListMine(svcs.Offers, logg))
			r.Get("/{offerId}", controllers.OfferGet(svcs.Offers, logg))
			r.Patch("/{offerId}", controllers.OfferPartialUpdate(svcs.Offers, logg))
			r.Delete("/{offerId}", controllers.OfferDelete(svcs.Offers, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Use(middleware.RequireApplication(logg))
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
		})

		r.Route("/v1/transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionCreate(svcs.Transactions, logg))
			r.Get("/", controllers.TransactionList(svcs.Transactions, logg))
			r.Get("/{transactionId}", controllers.TransactionGet(svcs.Transactions, logg))
			r.Patch("/{transactionId}", controllers.TransactionPartialUpdate(svcs.Transactions, logg))
			r.Delete("/{transactionId}", controllers.TransactionDelete(svcs.Transactions, logg))
		})

		r.Route("/v1/locations", func(r chi.Router) {
			r.Get("/", controllers.LocationList(svcs.Locations, logg))
			r.Get("/search", controllers.LocationSearch(svcs.Locations, logg))
			r.Get("/{locationId}", controllers.LocationGet(svcs.Locations, logg))
		})

		r.Route("/v1/lookups", func(r chi.Router) {
			r.Get("/deal-statuses", controllers.LookupDealStatuses(svcs.Lookups, logg))
			r.Get("/shipment-types", controllers.LookupShipmentTypes(svcs.Lookups, logg))
			r.Get("/constants", controllers.LookupConstants(svcs.Lookups, logg))
			r.Get("/countries", controllers.LookupCountries(svcs.Lookups, logg))
			r.Get("/account-providers", controllers.LookupAccountProviders(svcs.Lookups, logg))
		})

		r.Get("/v1/pricing/quote", controllers.PricingQuote(svcs.Pricing, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1/locations", func(r chi.Router) {
			r.Post("/refresh", controllers.LocationRefresh(svcs.Locations, logg))
			r.Post("/", controllers.LocationCreate(svcs.Locations, logg))
			r.Delete("/{locationId}", controllers.LocationDelete(svcs.Locations, logg))
		})
		r.Route("/v1/lookups", func(r chi.Router) {
			r.Post("/shipment-types", controllers.LookupCreateShipmentType(svcs.Lookups, logg))
			r.Patch("/constants", controllers.LookupUpdateConstants(svcs.Lookups, logg))
			r.Post("/account-providers", controllers.LookupCreateAccountProvider(svcs.Lookups, logg))
		})
		r.Get("/v1/offers", controllers.OfferList(svcs.Offers, logg))
	})

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tunevest/songshare-ledger/internal/api/handlers"
	custommiddleware "github.com/tunevest/songshare-ledger/internal/api/middleware"
	"github.com/tunevest/songshare-ledger/internal/config"
	"github.com/tunevest/songshare-ledger/internal/service"
)

// Services bundles the service dependencies the router wires into handlers.
type Services struct {
	System       *service.SystemService
	Ownership    *service.OwnershipService
	Catalog      *service.CatalogService
	Holdings     *service.HoldingsService
	Distribution *service.DistributionService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/contract", func(r chi.Router) {
			contractHandler := handlers.NewContractHandler(services.Ownership, services.Catalog)
			tradingHandler := handlers.NewTradingHandler(services.Ownership)
			distributionHandler := handlers.NewDistributionHandler(services.Distribution)

			r.Post("/", contractHandler.IssueContract)
			r.Get("/", contractHandler.Catalog)

			r.Route("/artist/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", contractHandler.ArtistContracts)
			})

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", contractHandler.GetContract)
				r.Delete("/", contractHandler.TeardownContract)
				r.Put("/price", contractHandler.UpdatePrice)
				r.Get("/price-history", contractHandler.PriceHistory)

				r.Post("/purchase", tradingHandler.PurchaseShares)
				r.Post("/transfer", tradingHandler.TransferShares)
				r.Get("/transactions", tradingHandler.ContractTransactions)

				r.Post("/distribute", distributionHandler.DistributeRevenue)
				r.Get("/distributions", distributionHandler.ContractDistributions)
			})
		})

		r.Route("/distribution/{uuid}", func(r chi.Router) {
			distributionHandler := handlers.NewDistributionHandler(services.Distribution)
			r.Use(custommiddleware.ValidateUUIDMiddleware)
			r.Get("/payouts", distributionHandler.DistributionPayouts)
		})

		r.Route("/holdings/user/{uuid}", func(r chi.Router) {
			holdingsHandler := handlers.NewHoldingsHandler(services.Holdings, services.Distribution)
			tradingHandler := handlers.NewTradingHandler(services.Ownership)
			r.Use(custommiddleware.ValidateUUIDMiddleware)
			r.Get("/", holdingsHandler.UserHoldings)
			r.Get("/transactions", tradingHandler.UserTransactions)
			r.Get("/song/{songUuid}/earnings", holdingsHandler.UserSongEarnings)
		})
	})

	return r
}

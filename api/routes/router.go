package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/scrapscan-backend/api/controllers"
	"github.com/angelmondragon/scrapscan-backend/api/middleware"
	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/db"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/scrapscan-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	configService controllers.ScrapConfigService,
	resolver controllers.BarcodeResolver,
	stockReader controllers.StockReader,
	scrapService controllers.ScrapService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	idempotent := middleware.Idempotency(idempotencyStore, cfg.Eventing.IdempotencyTTL, logg)

	r.Route("/api/v1/scrap", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/config", controllers.ScrapConfig(configService, logg))
		r.Get("/reason-tags", controllers.ScrapReasonTags(scrapService, logg))
		r.Get("/stock", controllers.ScrapStock(stockReader, logg))
		r.Get("/orders/{scrapId}", controllers.ScrapDetail(scrapService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin, enums.MemberRoleOperator))
			r.Post("/scan", controllers.ScrapScan(resolver, logg))
			r.With(idempotent).Post("/batches", controllers.ScrapCommitBatch(scrapService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin))
			r.Get("/configs", controllers.ScrapConfigList(configService, logg))
			r.With(idempotent).Post("/configs", controllers.ScrapConfigCreate(configService, logg))
			r.With(idempotent).Patch("/configs/{configId}", controllers.ScrapConfigUpdate(configService, logg))
		})
	})

	return r
}

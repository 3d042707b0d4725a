package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttle-booking/internal/handler/api"
	"shuttle-booking/internal/handler/middleware"
	"shuttle-booking/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	scheduleHandler *api.ScheduleHandler,
	reservationHandler *api.ReservationHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, scheduleHandler, reservationHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	scheduleHandler *api.ScheduleHandler,
	reservationHandler *api.ReservationHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/auth/login", Handler: authHandler.Login},
			// Public booking surface: pick a date, check seats, book, cancel.
			{Method: http.MethodGet, Path: "/dates", Handler: scheduleHandler.ListUpcomingDates},
			{Method: http.MethodGet, Path: "/dates/:date/capacity", Handler: reservationHandler.GetCapacity},
			{Method: http.MethodPost, Path: "/reservations", Handler: reservationHandler.Admit},
			{Method: http.MethodPost, Path: "/reservations/cancel", Handler: reservationHandler.Cancel},
		})

		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			addRoutes(admin, []route{
				{Method: http.MethodGet, Path: "/dates", Handler: scheduleHandler.ListDates},
				{Method: http.MethodPost, Path: "/dates", Handler: scheduleHandler.AddDate},
				{Method: http.MethodPost, Path: "/dates/batch", Handler: scheduleHandler.BatchAddByWeekday},
				{Method: http.MethodDelete, Path: "/dates/:date", Handler: scheduleHandler.RemoveDate},
				{Method: http.MethodGet, Path: "/dates/:date/reservations", Handler: reservationHandler.GetDayLedger},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

package components

import (
	"shuttle-booking/internal/handler"
	"shuttle-booking/internal/handler/api"
	"shuttle-booking/internal/handler/middleware"
	"shuttle-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		func(cfg config.Config) config.AdminConfig { return cfg.Admin },
		api.NewAuthHandler,
		api.NewScheduleHandler,
		api.NewReservationHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

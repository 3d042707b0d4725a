package bootstrap

import (
	"shuttle-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	StorageModule,
	JWTModule,
	components.UseCaseModule,
	components.HandlerModule,
)

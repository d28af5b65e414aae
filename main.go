package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aquaregwatch/regwatch/app"
	"github.com/aquaregwatch/regwatch/config"
	"github.com/aquaregwatch/regwatch/lib/emit"
	"github.com/aquaregwatch/regwatch/lib/scheduler"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(NewLogger),
		fx.Provide(config.NewConfig),

		fx.Provide(emit.NewRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(app.NewStore),
		fx.Provide(app.NewRules),
		fx.Provide(app.NewFetcher),
		fx.Provide(app.NewDetector),
		fx.Provide(app.NewScheduler),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server) {}),
		fx.Invoke(func(*scheduler.Scheduler) {}),
	).Run()
}

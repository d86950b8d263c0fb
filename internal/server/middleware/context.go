package middleware

import (
	"context"

	"github.com/assemblage/backend/pkg/ai"
	"github.com/assemblage/backend/pkg/assemblage"

	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

// Detector is the part of assemblage.Service the handlers need.
type Detector interface {
	Detect(ctx context.Context, req assemblage.Request) (assemblage.Result, error)
}

// App holds the long-lived dependencies shared by every request. Queue and
// AiClient may be nil when the server runs without a broker or only serves
// the synchronous routes in tests.
type App struct {
	Detector Detector
	AiClient ai.AssemblageAIClient
	Queue    *amqp091.Channel
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

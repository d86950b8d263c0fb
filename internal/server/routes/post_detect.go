package routes

import (
	"net/http"
	"time"

	"github.com/assemblage/backend/internal/metrics"
	"github.com/assemblage/backend/internal/server/middleware"
	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DetectAssemblagesHandler clusters the posted actors and edges and returns
// the top communities.
func DetectAssemblagesHandler(c echo.Context) error {
	data := new(assemblage.Request)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBody())
	}

	start := time.Now()
	if err := c.Validate(data); err != nil {
		err = common.NewValidationError("body", "%v", err)
		metrics.ObserveDetect(start, 0, false, err)
		status, body := errorStatus(err)
		return c.JSON(status, body)
	}

	app := c.(*middleware.AppContext).App
	res, err := app.Detector.Detect(c.Request().Context(), *data)
	metrics.ObserveDetect(start, len(res.Communities), res.Empty != "", err)
	if err != nil {
		status, body := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("[Server] Detection failed", "err", err)
		}
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, res)
}

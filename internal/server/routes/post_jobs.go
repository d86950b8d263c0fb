package routes

import (
	"net/http"

	"github.com/assemblage/backend/internal/queue"
	"github.com/assemblage/backend/internal/server/middleware"
	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EnqueueDetectHandler validates a detection request and hands it to the
// worker. The outcome is published to the results queue under the returned
// job id.
func EnqueueDetectHandler(c echo.Context) error {
	type enqueueResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
	}

	data := new(assemblage.Request)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBody())
	}
	if err := c.Validate(data); err != nil {
		status, body := errorStatus(common.NewValidationError("body", "%v", err))
		return c.JSON(status, body)
	}
	if err := data.Validate(); err != nil {
		status, body := errorStatus(err)
		return c.JSON(status, body)
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, enqueueResponse{
			Message: "Job queue not configured",
		})
	}

	jobID, err := queue.EnqueueDetect(c.Request().Context(), app.Queue, *data)
	if err != nil {
		logger.Error("[Server] Failed to enqueue detection job", "err", err)
		return c.JSON(http.StatusInternalServerError, enqueueResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, enqueueResponse{
		Message: "Job queued",
		JobID:   jobID,
	})
}

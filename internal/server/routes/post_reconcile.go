package routes

import (
	"net/http"

	"github.com/assemblage/backend/internal/metrics"
	"github.com/assemblage/backend/pkg/assemblage"

	"github.com/labstack/echo/v4"
)

// ReconcileLinksHandler merges heuristic edges with formal claims.
func ReconcileLinksHandler(c echo.Context) error {
	data := new(assemblage.ReconcileRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBody())
	}
	if err := c.Validate(data); err != nil {
		status, body := errorStatus(err)
		return c.JSON(status, body)
	}

	res, err := assemblage.Reconcile(*data)
	if err != nil {
		status, body := errorStatus(err)
		return c.JSON(status, body)
	}
	metrics.ObserveReconcile(res.Edges)

	return c.JSON(http.StatusOK, res)
}

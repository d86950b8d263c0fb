package routes

import (
	"net/http"

	"github.com/assemblage/backend/pkg/resolve"

	"github.com/labstack/echo/v4"
)

// MatchNamesHandler reports whether two free-text names denote the same
// entity, along with their normalized forms.
func MatchNamesHandler(c echo.Context) error {
	type matchBody struct {
		A         string `json:"a" validate:"required"`
		B         string `json:"b" validate:"required"`
		Threshold int    `json:"threshold" validate:"gte=0"`
	}

	type matchResponse struct {
		NormalizedA string `json:"normalized_a"`
		NormalizedB string `json:"normalized_b"`
		Distance    int    `json:"distance"`
		Match       bool   `json:"match"`
	}

	data := new(matchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBody())
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, invalidBody())
	}

	threshold := data.Threshold
	if threshold == 0 {
		threshold = resolve.DefaultDistanceThreshold
	}
	na, nb := resolve.Normalize(data.A), resolve.Normalize(data.B)

	return c.JSON(http.StatusOK, matchResponse{
		NormalizedA: na,
		NormalizedB: nb,
		Distance:    resolve.Levenshtein(na, nb),
		Match:       resolve.MatchesWithin(data.A, data.B, threshold),
	})
}

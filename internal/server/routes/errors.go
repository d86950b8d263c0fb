package routes

import (
	"errors"
	"net/http"

	"github.com/assemblage/backend/pkg/common"

	"github.com/go-playground/validator"
)

type errorResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
}

// errorStatus maps a pipeline error onto an HTTP status and body.
func errorStatus(err error) (int, errorResponse) {
	var vErr *common.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorResponse{
			Message: vErr.Error(),
			Status:  common.StatusInvalid,
			Field:   vErr.Field,
		}
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, errorResponse{
			Message: "Invalid request body: " + fieldErrs.Error(),
			Status:  common.StatusInvalid,
		}
	}
	var uErr *common.UpstreamError
	if errors.As(err, &uErr) {
		return http.StatusBadGateway, errorResponse{
			Message: uErr.Error(),
			Status:  common.StatusUpstreamFailed,
		}
	}
	return http.StatusInternalServerError, errorResponse{
		Message: "Internal server error",
		Status:  common.StatusInternalError,
	}
}

func invalidBody() errorResponse {
	return errorResponse{
		Message: "Invalid request body",
		Status:  common.StatusInvalid,
	}
}

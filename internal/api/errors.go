// internal/api/errors.go
package api

import (
	"net/http"

	"github.com/go-chi/render"

	"drivecash/internal/common/errors"
)

// statusFor maps error codes to HTTP statuses. Unknown codes are
// treated as internal failures.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeLoanNotFound:
		return http.StatusNotFound
	case errors.ErrCodeValidationFailed, errors.ErrCodeDocumentMissing:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSubmissionInProgress:
		return http.StatusConflict
	case errors.ErrCodeBackendCreateFailed, errors.ErrCodeBackendSaveFailed,
		errors.ErrCodeBackendRequestFailed, errors.ErrCodeBackendResponseFailed,
		errors.ErrCodeSubmitFailed, errors.ErrCodeDocumentUploadFailed:
		return http.StatusBadGateway
	case errors.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	if stdErr, ok := err.(*errors.StandardError); ok {
		render.Status(r, statusFor(stdErr.Code))
		render.JSON(w, r, stdErr)
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]interface{}{"error": err.Error()})
}

func renderBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]interface{}{"error": message})
}

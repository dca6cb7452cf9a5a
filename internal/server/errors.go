package server

import (
	"errors"
	"net/http"

	"github.com/shojibur/octagon-jobs/internal/apply"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var verr *apply.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var merr *apply.MailError
	if errors.As(err, &merr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

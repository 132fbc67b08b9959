package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage"
)

// unavailableMessage is shown whenever the database cannot be reached.
const unavailableMessage = "Database connection failed. Please try again later."

// errorBody is the envelope every failure uses.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError keeps JSON formatting consistent across endpoints.
func respondError(w http.ResponseWriter, status int, message, detail string) {
	respondJSON(w, status, errorBody{Success: false, Message: message, Error: detail})
}

// statusFor classifies a service error. fallback is the message used for 500s.
func statusFor(err error, fallback string) (int, string, string) {
	switch {
	case storage.IsUnavailable(err), errors.Is(err, catalog.ErrUnavailable):
		return http.StatusServiceUnavailable, unavailableMessage, "Database unavailable"
	case errors.Is(err, order.ErrNumberConflict):
		return http.StatusServiceUnavailable, "Could not allocate an order number. Please try again.", err.Error()
	case order.IsValidation(err), auth.IsValidation(err), catalog.IsValidation(err):
		return http.StatusBadRequest, err.Error(), ""
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusBadRequest, "User with this email already exists", ""
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid email or password", ""
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusBadRequest, "Failed to update order status", err.Error()
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, "Order not found", ""
	default:
		return http.StatusInternalServerError, fallback, err.Error()
	}
}

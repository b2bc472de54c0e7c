// README: HTTP helper utilities for JSON and error mapping.
package handlers

import (
	"encoding/json"
	"net/http"

	"foodbridge/internal/modules/fulfillment"
	"foodbridge/internal/modules/listing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFulfillmentError(w http.ResponseWriter, err error) {
	switch err {
	case fulfillment.ErrNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case fulfillment.ErrUnauthorized, fulfillment.ErrCodeMismatch:
		writeError(w, http.StatusForbidden, err.Error())
	case fulfillment.ErrInvalidState, fulfillment.ErrConflict:
		writeError(w, http.StatusConflict, err.Error())
	case fulfillment.ErrNoMatch, fulfillment.ErrDomainRule:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeListingError(w http.ResponseWriter, err error) {
	switch err {
	case listing.ErrBadRequest:
		writeError(w, http.StatusBadRequest, err.Error())
	case listing.ErrNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case listing.ErrUnauthorized:
		writeError(w, http.StatusForbidden, err.Error())
	case listing.ErrConflict:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Package errors serializa la taxonomía de errores OAuth a respuestas HTTP.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/xianzhi-projects/xianzhi-uaa/internal/oauth"
)

// errorResponse es el shape del error de protocolo (RFC 6749 §5.2).
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteOAuthError traduce un error del dominio a la respuesta de protocolo.
// Errores no tipados se colapsan en server_error: nunca se propaga un error
// crudo al caller.
func WriteOAuthError(w http.ResponseWriter, err error) {
	oautherr := oauth.FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if oautherr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="uaa"`)
	}
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(oautherr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:            oautherr.Code,
		ErrorDescription: oautherr.Message,
		RequestID:        rid,
	})
}

// WriteJSON: respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

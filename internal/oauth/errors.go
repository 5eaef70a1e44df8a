// Package oauth define los tipos compartidos del flujo de emisión de tokens:
// la taxonomía de errores tipados que atraviesa todas las etapas del pipeline
// y su mapeo a códigos de protocolo OAuth2.
package oauth

import (
	"fmt"
	"net/http"
)

// Error es el error tipado del dominio OAuth. Cada etapa del pipeline retorna
// uno de estos; el transport los traduce a la respuesta de protocolo.
type Error struct {
	Code       string `json:"error"`                       // código estable OAuth2
	Message    string `json:"error_description,omitempty"` // legible para humanos
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, solo para logs
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder a la causa original.
func (e *Error) Unwrap() error { return e.Err }

// Is matchea por código, así las copias derivadas con WithDetail/WithCause
// siguen siendo el mismo error para errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail reemplaza el mensaje. Devuelve una COPIA para no mutar los
// sentinels globales.
func (e *Error) WithDetail(detail string) *Error {
	newErr := *e
	newErr.Message = detail
	return &newErr
}

// WithCause agrega el error original. Devuelve una COPIA.
func (e *Error) WithCause(err error) *Error {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// Taxonomía completa del pipeline. Los códigos siguen RFC 6749 §5.2;
// el status refleja la categoría (400 grant inválido, 401 credenciales).
var (
	// ErrInvalidClient: cliente ausente, no autenticado o inexistente.
	ErrInvalidClient = &Error{Code: "invalid_client", Message: "client authentication failed", HTTPStatus: http.StatusUnauthorized}

	// ErrClientNotFound: lookup terminal en el registry.
	ErrClientNotFound = &Error{Code: "client_not_found", Message: "client not found", HTTPStatus: http.StatusUnauthorized}

	// ErrGrantTypeNotSupported: el grant pedido no está habilitado para el cliente.
	ErrGrantTypeNotSupported = &Error{Code: "unsupported_grant_type", Message: "grant type not allowed for this client", HTTPStatus: http.StatusBadRequest}

	// ErrUnsupportedGrant: ningún authenticator registrado soporta el grant.
	ErrUnsupportedGrant = &Error{Code: "unsupported_grant_type", Message: "no authenticator for grant type", HTTPStatus: http.StatusBadRequest}

	// ErrInvalidScope: scope pedido fuera de los permitidos del cliente.
	ErrInvalidScope = &Error{Code: "invalid_scope", Message: "requested scope exceeds client scopes", HTTPStatus: http.StatusBadRequest}

	// ErrBadCredentials cubre usuario inexistente y password incorrecto,
	// indistinguibles a propósito para el caller.
	ErrBadCredentials = &Error{Code: "invalid_grant", Message: "bad credentials", HTTPStatus: http.StatusUnauthorized}

	// ErrMissingField: falta un parámetro requerido del grant.
	ErrMissingField = &Error{Code: "invalid_request", Message: "missing required field", HTTPStatus: http.StatusBadRequest}

	// ErrMalformedRequest: el body no parsea bajo el Content-Type declarado.
	ErrMalformedRequest = &Error{Code: "invalid_request", Message: "malformed request body", HTTPStatus: http.StatusBadRequest}

	// ErrTokenGeneration: fallo de firma. Seguro de reintentar (nada persistido).
	ErrTokenGeneration = &Error{Code: "server_error", Message: "token generation failed", HTTPStatus: http.StatusInternalServerError}

	// ErrPersistence: fallo guardando la Authorization DESPUÉS de mintear.
	// No es seguro reintentar a ciegas: puede haber un token vivo.
	ErrPersistence = &Error{Code: "server_error", Message: "authorization persistence failed", HTTPStatus: http.StatusInternalServerError}

	// ErrStoreUnavailable: fallo transitorio de store/cache.
	ErrStoreUnavailable = &Error{Code: "temporarily_unavailable", Message: "backing store unavailable", HTTPStatus: http.StatusServiceUnavailable}

	// ErrDuplicateClientID / ErrDuplicateClientName: solo administración de clientes.
	ErrDuplicateClientID   = &Error{Code: "duplicate_client_id", Message: "client_id already registered", HTTPStatus: http.StatusConflict}
	ErrDuplicateClientName = &Error{Code: "duplicate_client_name", Message: "client name already registered", HTTPStatus: http.StatusConflict}

	// ErrServer: catch-all para errores no reconocidos de colaboradores.
	ErrServer = &Error{Code: "server_error", Message: "internal server error", HTTPStatus: http.StatusInternalServerError}
)

// MissingField construye un ErrMissingField nombrando el primer campo ausente.
func MissingField(name string) *Error {
	return ErrMissingField.WithDetail("missing required field: " + name)
}

// FromError convierte cualquier error en un *Error del dominio.
// Errores desconocidos (p.ej. un nil pointer de un colaborador que se portó
// mal) se mapean a ErrServer en lugar de propagarse crudos.
func FromError(err error) *Error {
	if oautherr, ok := err.(*Error); ok {
		return oautherr
	}
	return ErrServer.WithCause(err)
}

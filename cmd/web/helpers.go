package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"storefront/internal/models"
)

type envelope map[string]any

func (app *application) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		app.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(js, '\n'))
}

// readJSON decodes a single JSON object from the request body into dst.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return models.ValidationError("request body must not be empty")
		case errors.As(err, &syntaxErr):
			return models.ValidationError("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return models.ValidationError("invalid value for field %q", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return models.ValidationError("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return models.ValidationError("invalid request body")
		}
	}
	if dec.More() {
		return models.ValidationError("request body must contain a single JSON object")
	}
	return nil
}

// serverError logs the stack trace and sends a generic 500.
func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)

	app.writeJSON(w, http.StatusInternalServerError, envelope{
		"error":   models.KindInternal.String(),
		"message": "internal server error",
	})
}

func (app *application) clientError(w http.ResponseWriter, status int) {
	app.writeJSON(w, status, envelope{"error": http.StatusText(status)})
}

func statusOf(kind models.Kind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse maps a tagged error onto its status. Untagged errors are
// server errors.
func (app *application) errorResponse(w http.ResponseWriter, err error) {
	app.errorResponseWithStatus(w, statusOf(models.KindOf(err)), err)
}

func (app *application) errorResponseWithStatus(w http.ResponseWriter, status int, err error) {
	kind := models.KindOf(err)
	if kind == models.KindInternal {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, status, envelope{
		"error":   kind.String(),
		"message": models.MessageOf(err),
	})
}

// pathID reads a positive integer route parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(":"+name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

package main

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/identity"
	"storefront/internal/metrics"
	"storefront/internal/models"
)

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		app.infoLog.WithFields(logrus.Fields{
			"request_id":  requestID,
			"remote_addr": r.RemoteAddr,
			"proto":       r.Proto,
			"method":      r.Method,
			"uri":         r.URL.RequestURI(),
		}).Info("request")

		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the caller from a bearer token or, failing that,
// the session. An invalid token leaves the caller anonymous.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id models.Identity

		if raw, ok := bearerToken(r); ok {
			fromToken, err := app.identity.IdentityFromToken(raw)
			if err == nil {
				id = fromToken
			}
		}
		if !id.Authenticated {
			id = app.identity.IdentityFromSession(r.Context())
		}

		if id.Authenticated {
			w.Header().Add("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (app *application) requireAuthentication(next http.Handler) http.Handler {
	return app.requireRole(identity.NoRole, next)
}

func (app *application) requireRole(role int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := identity.RequireRole(identity.FromContext(r.Context()), role); err != nil {
			app.errorResponse(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitRate throttles each client address separately.
func (app *application) limitRate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !app.limiter.Allow(ip) {
			metrics.RecordRateLimited(r.URL.Path)
			app.infoLog.WithFields(logrus.Fields{"remote_addr": ip, "path": r.URL.Path}).Warn("rate limit exceeded")
			app.writeJSON(w, http.StatusTooManyRequests, envelope{
				"error":   "rate_limited",
				"message": "too many requests, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

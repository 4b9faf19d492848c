package main

import (
	"net/http"

	"github.com/bmizerany/pat"

	"storefront/internal/metrics"
	"storefront/internal/models"
)

func (app *application) routes() http.Handler {
	mux := pat.New()

	mux.Get(metrics.Route("/"), http.HandlerFunc(app.home))
	mux.Get(metrics.Route("/catalog"), http.HandlerFunc(app.listCatalog))
	mux.Get(metrics.Route("/catalog/:id/reviews"), http.HandlerFunc(app.productReviews))
	mux.Post(metrics.Route("/reviews"), app.requireAuthentication(http.HandlerFunc(app.addReview)))

	mux.Post(metrics.Route("/auth/register"), app.limitRate(http.HandlerFunc(app.register)))
	mux.Post(metrics.Route("/auth/login"), app.limitRate(http.HandlerFunc(app.login)))
	mux.Get(metrics.Route("/auth/profile"), app.requireAuthentication(http.HandlerFunc(app.profile)))
	mux.Post(metrics.Route("/auth/logout"), http.HandlerFunc(app.logout))

	mux.Get(metrics.Route("/cart"), app.requireAuthentication(http.HandlerFunc(app.listCart)))
	mux.Post(metrics.Route("/cart"), app.requireAuthentication(http.HandlerFunc(app.addToCart)))
	mux.Put(metrics.Route("/cart"), app.requireAuthentication(http.HandlerFunc(app.updateCart)))
	mux.Del(metrics.Route("/cart/:productId"), app.requireAuthentication(http.HandlerFunc(app.removeFromCart)))

	mux.Get(metrics.Route("/admin/dashboard"), app.requireRole(models.RoleAdmin, http.HandlerFunc(app.adminDashboard)))

	mux.Get(metrics.Route("/info/about"), http.HandlerFunc(app.about))
	mux.Get(metrics.Route("/info/privacy"), http.HandlerFunc(app.privacy))

	mux.Get(metrics.Route("/healthz"), http.HandlerFunc(app.healthz))
	mux.Get(metrics.Route("/metrics"), metrics.Handler())

	mux.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.clientError(w, http.StatusNotFound)
	})

	dynamic := app.sessionManager.LoadAndSave(app.authenticate(mux))
	return metrics.InstrumentHandler(app.logRequest(app.recoverPanic(dynamic)))
}

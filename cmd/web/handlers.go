package main

import (
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/identity"
	"storefront/internal/metrics"
	"storefront/internal/models"
)

// --- CATALOG HANDLERS ---

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	products, err := app.catalog.List(r.Context(), models.ProductQuery{}, identity.FromContext(r.Context()))
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, products)
}

func (app *application) listCatalog(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := models.ProductQuery{
		Category: qs.Get("filter"),
		Search:   qs.Get("search"),
		Sort:     models.ParseSortOrder(qs.Get("sort")),
	}

	products, err := app.catalog.List(r.Context(), q, identity.FromContext(r.Context()))
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, products)
}

func (app *application) productReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		app.errorResponse(w, models.NotFound("product not found"))
		return
	}

	reviews, err := app.reviews.ListForProduct(r.Context(), id)
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, reviews)
}

type addReviewRequest struct {
	ProductID int64  `json:"product_id"`
	Rating    *int   `json:"rating"`
	Text      string `json:"text"`
}

func (app *application) addReview(w http.ResponseWriter, r *http.Request) {
	var req addReviewRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, err)
		return
	}

	id, err := app.reviews.Add(r.Context(), identity.FromContext(r.Context()), req.ProductID, req.Rating, req.Text)
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, envelope{"id": id})
}

// --- AUTH HANDLERS ---

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	var req identity.Registration
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, err)
		return
	}

	user, err := app.identity.Register(r.Context(), req)
	if err != nil {
		if models.KindOf(err) == models.KindConflict {
			app.errorResponseWithStatus(w, http.StatusBadRequest, err)
			return
		}
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, envelope{"user": user.Profile()})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, err)
		return
	}

	res, err := app.identity.Login(r.Context(), req.Email, req.Password)
	metrics.RecordLogin(err)
	if err != nil {
		app.errorResponse(w, err)
		return
	}

	app.writeJSON(w, http.StatusOK, envelope{
		"user":       res.User.Profile(),
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (app *application) profile(w http.ResponseWriter, r *http.Request) {
	p, err := app.identity.Profile(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, p)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.identity.Logout(r.Context()); err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"status": "logged out"})
}

// --- CART HANDLERS ---

type cartLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (app *application) listCart(w http.ResponseWriter, r *http.Request) {
	lines, err := app.cart.List(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{
		"lines": lines,
		"total": models.FormatPrice(cart.GrandTotal(lines)),
	})
}

func (app *application) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, err)
		return
	}

	err := app.cart.Add(r.Context(), identity.FromContext(r.Context()), req.ProductID, req.Quantity)
	metrics.RecordCartOperation("add", err)
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, envelope{"status": "added"})
}

func (app *application) updateCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, err)
		return
	}

	err := app.cart.UpdateQuantity(r.Context(), identity.FromContext(r.Context()), req.ProductID, req.Quantity)
	metrics.RecordCartOperation("update", err)
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"status": "updated"})
}

func (app *application) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "productId")
	if !ok {
		app.errorResponse(w, models.NotFound("product is not in the cart"))
		return
	}

	err := app.cart.Remove(r.Context(), identity.FromContext(r.Context()), productID)
	metrics.RecordCartOperation("remove", err)
	if err != nil {
		app.errorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"status": "removed"})
}

// --- ADMIN HANDLERS ---

func (app *application) adminDashboard(w http.ResponseWriter, r *http.Request) {
	products, err := app.catalog.Count(r.Context())
	if err != nil {
		app.serverError(w, err)
		return
	}
	users, err := app.users.Count(r.Context())
	if err != nil {
		app.serverError(w, err)
		return
	}

	app.writeJSON(w, http.StatusOK, envelope{
		"message":  "welcome, administrator",
		"products": products,
		"users":    users,
	})
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := app.catalog.Count(r.Context()); err != nil {
		app.errorLog.Println(err)
		app.writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unavailable"})
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

package main

import (
	"net/http"
	"time"

	"storefront/internal/identity"
)

// pageData is the common part of every informational page.
type pageData struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	CurrentYear     int    `json:"current_year"`
	Company         string `json:"company,omitempty"`
	Description     string `json:"description,omitempty"`
	Contact         string `json:"contact,omitempty"`
	PrivacyPolicy   string `json:"privacy_policy,omitempty"`
}

func (app *application) addDefaultData(pd *pageData, r *http.Request) *pageData {
	if pd == nil {
		pd = &pageData{}
	}
	pd.CurrentYear = time.Now().Year()
	pd.IsAuthenticated = identity.FromContext(r.Context()).Authenticated
	return pd
}

func (app *application) about(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, app.addDefaultData(&pageData{
		Company:     "Storefront",
		Description: "An online store for home and kitchen goods.",
		Contact:     "contact@storefront.example",
	}, r))
}

func (app *application) privacy(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, app.addDefaultData(&pageData{
		PrivacyPolicy: "We store your contact details and password digest only to run your account and cart. " +
			"Session cookies expire after 30 minutes of inactivity.",
	}, r))
}

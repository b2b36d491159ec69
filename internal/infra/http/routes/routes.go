// Package routes registers all HTTP routes for the form API.
package routes

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/dealerdesk/api/internal/infra/http"
	"github.com/dealerdesk/api/internal/infra/http/handler"
)

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health  *handler.HealthHandler
	Form    *handler.FormHandler
	Catalog *handler.CatalogHandler
}

// Register wires every route onto the router.
func Register(r Router, h Handlers) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", promhttp.Handler().ServeHTTP)

	r.Group("/api/v1", func(api Router) {
		registerCatalog(api, h.Catalog)
		registerForms(api, h.Form)
	})
}

func registerCatalog(r Router, h *handler.CatalogHandler) {
	r.GET("/roles", h.Roles)
	r.GET("/regions", h.Regions)
	r.GET("/areas", h.Areas)
	r.GET("/territories", h.Territories)
	r.GET("/dealers", h.Dealers)
}

func registerForms(r Router, h *handler.FormHandler) {
	r.Group("/forms", func(forms Router) {
		forms.POST("/", h.Open)
		forms.GET("/{id}", h.Get)
		forms.DELETE("/{id}", h.Close)
		forms.PATCH("/{id}/fields", h.ChangeField)
		forms.PATCH("/{id}/account", h.SetAccount)
		forms.POST("/{id}/validate", h.Validate)
		forms.POST("/{id}/submit", h.Submit)
		forms.POST("/{id}/retry", h.Retry)
	})
}

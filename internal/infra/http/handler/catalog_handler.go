package handler

import (
	"net/http"

	"github.com/dealerdesk/api/internal/app"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/logger"
)

// CatalogHandler serves the read-only role catalog and hierarchy lists that
// UIs use to render pickers.
type CatalogHandler struct {
	catalog   *role.Catalog
	directory app.Directory
	log       *logger.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalog *role.Catalog, directory app.Directory, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		directory: directory,
		log:       log,
	}
}

// RoleView is the client-facing shape of a role definition.
type RoleView struct {
	Name                 string   `json:"name"`
	Title                string   `json:"title"`
	RequiredScopes       []string `json:"required_scopes"`
	EligibleManagerRoles []string `json:"eligible_manager_roles"`
	ManagerMandatory     bool     `json:"manager_mandatory"`
}

// Roles lists the role catalog in hierarchy order.
func (h *CatalogHandler) Roles(w http.ResponseWriter, _ *http.Request) {
	defs := h.catalog.Roles()
	out := make([]RoleView, 0, len(defs))
	for _, d := range defs {
		rv := RoleView{
			Name:                 d.Name.String(),
			Title:                d.Title,
			RequiredScopes:       make([]string, 0, len(d.RequiredScopes)),
			EligibleManagerRoles: make([]string, 0, len(d.EligibleManagerRoles)),
			ManagerMandatory:     d.ManagerMandatory,
		}
		for _, s := range d.RequiredScopes {
			rv.RequiredScopes = append(rv.RequiredScopes, s.String())
		}
		for _, m := range d.EligibleManagerRoles {
			rv.EligibleManagerRoles = append(rv.EligibleManagerRoles, m.String())
		}
		out = append(out, rv)
	}
	respondJSON(w, http.StatusOK, out)
}

// Regions lists all regions.
func (h *CatalogHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.directory.ListRegions(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list regions failed")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, regions)
}

// Areas lists all areas.
func (h *CatalogHandler) Areas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.directory.ListAreas(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list areas failed")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, areas)
}

// Territories lists all territories.
func (h *CatalogHandler) Territories(w http.ResponseWriter, r *http.Request) {
	territories, err := h.directory.ListTerritories(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list territories failed")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, territories)
}

// Dealers lists all dealers.
func (h *CatalogHandler) Dealers(w http.ResponseWriter, r *http.Request) {
	dealers, err := h.directory.ListDealers(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list dealers failed")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dealers)
}

package handler

import (
	"fmt"

	appclient "github.com/cabinet/backend/internal/application/client"
	appfiscal "github.com/cabinet/backend/internal/application/fiscal"
	domainclient "github.com/cabinet/backend/internal/domain/client"
	"github.com/cabinet/backend/internal/domain/fiscal"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/cabinet/backend/internal/infrastructure/logger"
	"github.com/cabinet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FiscalHandler handles compliance, view and fiscal-data write endpoints
type FiscalHandler struct {
	BaseHandler
	gateway    *appfiscal.Gateway
	views      *appfiscal.ViewService
	compliance *appfiscal.ComplianceService
	clients    *appclient.Service
}

// NewFiscalHandler creates a new fiscal handler
func NewFiscalHandler(
	gateway *appfiscal.Gateway,
	views *appfiscal.ViewService,
	compliance *appfiscal.ComplianceService,
	clients *appclient.Service,
) *FiscalHandler {
	return &FiscalHandler{
		gateway:    gateway,
		views:      views,
		compliance: compliance,
		clients:    clients,
	}
}

// RegisterRoutes registers fiscal routes
func (h *FiscalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fiscalGroup := rg.Group("/fiscal")
	{
		fiscalGroup.GET("/dashboard", h.Dashboard)
		fiscalGroup.GET("/alerts", h.Alerts)
		fiscalGroup.GET("/obligations/:type/outstanding", h.Outstanding)
		fiscalGroup.GET("/attestations/expiring", h.ExpiringAttestations)
		fiscalGroup.POST("/bulk-refresh", h.BulkRefresh)
		fiscalGroup.POST("/caches/invalidate", h.InvalidateCaches)
	}

	rg.PUT("/clients/:id/fiscal-data", h.PutFiscalData)
}

// Dashboard returns the full compliance report
func (h *FiscalHandler) Dashboard(c *gin.Context) {
	h.Success(c, h.compliance.Dashboard(c.Request.Context()))
}

type alertsQuery struct {
	Window int `form:"window" binding:"omitempty,min=1,max=365"`
}

// Alerts returns the attestation-expiry alerts. The window query parameter
// overrides the configured alert window in days.
func (h *FiscalHandler) Alerts(c *gin.Context) {
	var q alertsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid alert parameters: "+err.Error())
		return
	}
	h.Success(c, h.compliance.Alerts(c.Request.Context(), q.Window))
}

type viewQuery struct {
	Force bool `form:"force"`
}

// clientSummary is the compact client shape returned by view endpoints
type clientSummary struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	ValidityEndDate string    `json:"validity_end_date,omitempty"`
}

type viewResponse struct {
	Clients  []clientSummary `json:"clients"`
	Count    int             `json:"count"`
	Degraded bool            `json:"degraded"`
}

// Outstanding lists the clients that still owe the given obligation type for
// their active fiscal year
func (h *FiscalHandler) Outstanding(c *gin.Context) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid view parameters: "+err.Error())
		return
	}

	obligation := fiscal.ObligationType(c.Param("type"))
	clients, degraded, err := h.views.OutstandingClients(c.Request.Context(), obligation, q.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toViewResponse(clients, degraded, false))
}

// ExpiringAttestations lists the clients whose attestation expires within the
// configured window
func (h *FiscalHandler) ExpiringAttestations(c *gin.Context) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid view parameters: "+err.Error())
		return
	}

	clients, degraded, err := h.views.ExpiringAttestations(c.Request.Context(), q.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toViewResponse(clients, degraded, true))
}

func toViewResponse(clients []domainclient.Client, degraded, withAttestation bool) viewResponse {
	summaries := make([]clientSummary, 0, len(clients))
	for i := range clients {
		s := clientSummary{
			ID:   clients[i].ID,
			Code: clients[i].Code,
			Name: clients[i].Name,
		}
		if withAttestation && clients[i].FiscalData != nil && clients[i].FiscalData.Attestation != nil {
			s.ValidityEndDate = clients[i].FiscalData.Attestation.ValidityEndDate
		}
		summaries = append(summaries, s)
	}
	return viewResponse{Clients: summaries, Count: len(summaries), Degraded: degraded}
}

// PutFiscalData merges a partial fiscal-data update into the client's
// document through the persistence gateway
func (h *FiscalHandler) PutFiscalData(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var patch fiscal.FiscalDataPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.BadRequest(c, "Invalid fiscal data payload: "+err.Error())
		return
	}
	if patch.IsEmpty() {
		h.BadRequest(c, "Fiscal data update carries no changes")
		return
	}
	if err := preparePatch(&patch); err != nil {
		h.HandleError(c, err)
		return
	}

	if _, err := h.clients.Get(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	if ok := h.gateway.Save(c.Request.Context(), id, patch); !ok {
		h.ErrorWithCode(c, dto.ErrCodeStoreUnavailable,
			"Fiscal data could not be saved after retries. Please try again")
		return
	}

	data, err := h.clients.GetFiscalData(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// preparePatch validates patch dates and derives the attestation validity end
// from the creation date
func preparePatch(patch *fiscal.FiscalDataPatch) error {
	for year, obligations := range patch.Obligations {
		if len(year) != 4 {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid fiscal year key: %q", year))
		}
		for t := range obligations {
			if !t.Valid() {
				return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown obligation type: %q", t))
			}
		}
	}

	if patch.Attestation != nil && patch.Attestation.CreationDate != "" {
		end, err := fiscal.AttestationValidityEnd(patch.Attestation.CreationDate)
		if err != nil {
			return err
		}
		patch.Attestation.ValidityEndDate = end
	}
	return nil
}

type bulkRefreshRequest struct {
	ClientIDs []uuid.UUID `json:"client_ids"`
}

// BulkRefresh recomputes derived fiscal fields for the listed clients, or for
// every client when the list is empty
func (h *FiscalHandler) BulkRefresh(c *gin.Context) {
	var req bulkRefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid bulk refresh payload: "+err.Error())
			return
		}
	}

	ids := req.ClientIDs
	if len(ids) == 0 {
		all, err := h.clients.ListIDs(c.Request.Context())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		ids = all
	}

	log := logger.GetGinLogger(c)
	report := h.gateway.BulkRefresh(c.Request.Context(), ids, func(processed, total int, clientID uuid.UUID, ok bool) {
		log.Debug(fmt.Sprintf("bulk refresh %d/%d client=%s ok=%t", processed, total, clientID, ok))
	})
	h.Success(c, report)
}

// InvalidateCaches clears every view cache and broadcasts the invalidation
func (h *FiscalHandler) InvalidateCaches(c *gin.Context) {
	h.gateway.InvalidateViews(c.Request.Context())
	h.NoContent(c)
}

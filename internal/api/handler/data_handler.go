package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/ports"
	"github.com/agriops/farmops-api/internal/core/tenancy"
)

// DataHandler handles bulk export and import of a tenant's data.
type DataHandler struct {
	service ports.DataService
}

func NewDataHandler(service ports.DataService) *DataHandler {
	return &DataHandler{service: service}
}

// Export handles GET /v1/data/export.
//
// @Summary      Export all tenant data as a versioned envelope
// @Tags         data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  tenancy.ExportEnvelope
// @Failure      429  {object}  errorResponse
// @Router       /v1/data/export [get]
func (h *DataHandler) Export(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	envelope, err := h.service.ExportTenantData(c.Request().Context(), tctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope)
}

type importResponse struct {
	Imported         int      `json:"imported"`
	Warnings         []string `json:"warnings,omitempty"`
	AlreadyProcessed bool     `json:"already_processed,omitempty"`
}

// Import handles POST /v1/data/import.
//
// @Summary      Import a bulk payload into the caller's tenant
// @Tags         data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      tenancy.ImportPayload  true   "Records to import"
// @Success      200              {object}  importResponse
// @Failure      400              {object}  errorResponse
// @Failure      429              {object}  errorResponse
// @Router       /v1/data/import [post]
func (h *DataHandler) Import(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	var payload tenancy.ImportPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ImportTenantData(c.Request().Context(), tctx, payload, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, importResponse{
		Imported:         result.Imported,
		Warnings:         result.Warnings,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

package inventoryserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	inventoryhttpmapper "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/http/mapper"
	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// PartAPI exposes part use cases over HTTP.
type PartAPI struct {
	service ports.Service
	intake  *application.Intake
}

// NewPartAPI creates a PartAPI. intake should be shared with every other
// create path so one key yields one record. Without it Idempotency-Key
// headers are ignored.
func NewPartAPI(service ports.Service, intake *application.Intake) PartAPI {
	if intake == nil {
		intake = application.NewIntake(service, nil)
	}
	return PartAPI{service: service, intake: intake}
}

// Post /v1/parts
// Add a part to the inventory
func (api *PartAPI) AddPart(c *gin.Context) {
	var payload inventoryhttpmapper.PartMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	part, err := inventoryhttpmapper.ToDomainPart(payload)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	created, replayed, err := api.intake.AddPart(c.Request.Context(), c.GetHeader(idempotencyKeyHeader), part)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, replayed, inventoryhttpmapper.FromDomainPart(created))
}

// Get /v1/parts
// Lists parts whose name contains the name query, case-insensitively
func (api *PartAPI) FindParts(c *gin.Context) {
	name, ok := parseNameQuery(c)
	if !ok {
		return
	}
	view := api.service.LookupParts(c.Request.Context(), name)
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainParts(view.Items()))
}

// Get /v1/parts/:partId
// Find part by ID
func (api *PartAPI) GetPartById(c *gin.Context) {
	id, ok := parseIDParam(c, "partId")
	if !ok {
		return
	}
	part, found := api.service.LookupPart(c.Request.Context(), id)
	if !found {
		respondNotFound(c, "part", id)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainPart(part))
}

// Put /v1/parts/:partId
// Replace a part, possibly switching its kind
func (api *PartAPI) UpdatePart(c *gin.Context) {
	id, ok := parseIDParam(c, "partId")
	if !ok {
		return
	}
	var payload inventoryhttpmapper.PartMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	part, err := inventoryhttpmapper.ToDomainPart(payload)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	if part.ID == 0 {
		part.ID = id
	}
	updated, err := api.service.UpdatePart(c.Request.Context(), id, part)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainPart(updated))
}

// Delete /v1/parts/:partId
// Deletes a part; products referencing it keep the dangling id
func (api *PartAPI) DeletePart(c *gin.Context) {
	id, ok := parseIDParam(c, "partId")
	if !ok {
		return
	}
	deleted, err := api.service.DeletePart(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !deleted {
		respondNotFound(c, "part", id)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondCreated answers 201 for a fresh record and 200 for a replay.
func respondCreated(c *gin.Context, replayed bool, body any) {
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, body)
		return
	}
	c.JSON(http.StatusCreated, body)
}

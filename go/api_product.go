package inventoryserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	inventoryhttpmapper "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/http/mapper"
	inventoryworkflows "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/workflows"
	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// ProductAPI wires HTTP transport with the product use cases and the
// assembly workflow.
type ProductAPI struct {
	service   ports.Service
	intake    *application.Intake
	workflows ports.WorkflowOrchestrator
}

// NewProductAPI creates a ProductAPI. Without workflows, assembly runs
// inline as a single AddProduct call.
func NewProductAPI(service ports.Service, workflows ports.WorkflowOrchestrator, intake *application.Intake) ProductAPI {
	if intake == nil {
		intake = application.NewIntake(service, nil)
	}
	if workflows == nil {
		workflows = inventoryworkflows.NewInlineProductWorkflows(intake)
	}
	return ProductAPI{service: service, intake: intake, workflows: workflows}
}

// Post /v1/products
// Add a product, optionally with associated parts
func (api *ProductAPI) AddProduct(c *gin.Context) {
	var payload inventoryhttpmapper.ProductMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := inventoryhttpmapper.ToDomainProduct(payload)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	created, replayed, err := api.intake.AddProduct(c.Request.Context(), c.GetHeader(idempotencyKeyHeader), product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, replayed, inventoryhttpmapper.FromDomainProduct(created))
}

// Post /v1/products/assemble
// Creates a product and attaches the listed parts as one workflow
func (api *ProductAPI) AssembleProduct(c *gin.Context) {
	var payload inventoryhttpmapper.AssembleProduct
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := inventoryhttpmapper.ToDomainProduct(payload.Product)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	input := ports.AssembleProductInput{
		Product:        product,
		PartIDs:        payload.PartIDs,
		IdempotencyKey: c.GetHeader(idempotencyKeyHeader),
	}
	assembled, err := api.workflows.AssembleProduct(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inventoryhttpmapper.FromDomainProduct(assembled))
}

// Get /v1/products
// Lists products whose name contains the name query, case-insensitively
func (api *ProductAPI) FindProducts(c *gin.Context) {
	name, ok := parseNameQuery(c)
	if !ok {
		return
	}
	view := api.service.LookupProducts(c.Request.Context(), name)
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainProducts(view.Items()))
}

// Get /v1/products/:productId
// Find product by ID
func (api *ProductAPI) GetProductById(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	product, found := api.service.LookupProduct(c.Request.Context(), id)
	if !found {
		respondNotFound(c, "product", id)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainProduct(product))
}

// Put /v1/products/:productId
// Replace a product together with its associations
func (api *ProductAPI) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var payload inventoryhttpmapper.ProductMutation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := inventoryhttpmapper.ToDomainProduct(payload)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	if product.ID == 0 {
		product.ID = id
	}
	updated, err := api.service.UpdateProduct(c.Request.Context(), id, product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainProduct(updated))
}

// Delete /v1/products/:productId
// Deletes a product that has no associated parts
func (api *ProductAPI) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	deleted, err := api.service.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !deleted {
		respondNotFound(c, "product", id)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/products/:productId/parts
// Resolves the associated parts in association order
func (api *ProductAPI) GetProductParts(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	parts, err := api.service.ProductParts(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainParts(parts))
}

// Post /v1/products/:productId/parts/:partId
// Associate a part with a product
func (api *ProductAPI) AssociatePart(c *gin.Context) {
	productID, partID, ok := parseAssociationParams(c)
	if !ok {
		return
	}
	product, err := api.service.AssociatePart(c.Request.Context(), productID, partID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainProduct(product))
}

// Delete /v1/products/:productId/parts/:partId
// Removes one association of the part from the product
func (api *ProductAPI) DissociatePart(c *gin.Context) {
	productID, partID, ok := parseAssociationParams(c)
	if !ok {
		return
	}
	product, err := api.service.DissociatePart(c.Request.Context(), productID, partID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.FromDomainProduct(product))
}

func parseAssociationParams(c *gin.Context) (int64, int64, bool) {
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return 0, 0, false
	}
	partID, ok := parseIDParam(c, "partId")
	if !ok {
		return 0, 0, false
	}
	return productID, partID, true
}

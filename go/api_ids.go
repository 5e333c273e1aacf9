package inventoryserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	inventoryhttpmapper "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/http/mapper"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// IDAPI hands out record identifiers ahead of a create.
type IDAPI struct {
	service ports.Service
}

func NewIDAPI(service ports.Service) IDAPI {
	return IDAPI{service: service}
}

// Post /v1/ids
// Reserves an identifier shared by parts and products
func (api *IDAPI) AllocateID(c *gin.Context) {
	id, err := api.service.AllocateID(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventoryhttpmapper.AllocatedID{ID: id})
}

package inventoryserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

const idempotencyKeyHeader = "Idempotency-Key"

// parseIDParam binds a simple-style path parameter, answering 400 on failure.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondBadRequest(c, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return 0, false
	}
	if id < 0 {
		respondBadRequest(c, fmt.Errorf("parameter %s must not be negative", name))
		return 0, false
	}
	return id, true
}

// parseNameQuery binds the optional form-style name filter. An absent name
// matches every record.
func parseNameQuery(c *gin.Context) (string, bool) {
	var name *string
	if err := runtime.BindQueryParameter("form", true, false, "name", c.Request.URL.Query(), &name); err != nil {
		respondBadRequest(c, fmt.Errorf("invalid format for parameter name: %w", err))
		return "", false
	}
	if name == nil {
		return "", true
	}
	return *name, true
}

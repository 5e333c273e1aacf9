package inventoryserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers mounted under /v1.
type ApiHandleFunctions struct {
	IDAPI      IDAPI
	PartAPI    PartAPI
	ProductAPI ProductAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes and request id middleware to an
// existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(RequestID())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// RequestID propagates the caller's X-Request-ID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", healthz},
		{"AllocateID", http.MethodPost, "/v1/ids", handleFunctions.IDAPI.AllocateID},
		{"AddPart", http.MethodPost, "/v1/parts", handleFunctions.PartAPI.AddPart},
		{"FindParts", http.MethodGet, "/v1/parts", handleFunctions.PartAPI.FindParts},
		{"GetPartById", http.MethodGet, "/v1/parts/:partId", handleFunctions.PartAPI.GetPartById},
		{"UpdatePart", http.MethodPut, "/v1/parts/:partId", handleFunctions.PartAPI.UpdatePart},
		{"DeletePart", http.MethodDelete, "/v1/parts/:partId", handleFunctions.PartAPI.DeletePart},
		{"AddProduct", http.MethodPost, "/v1/products", handleFunctions.ProductAPI.AddProduct},
		{"AssembleProduct", http.MethodPost, "/v1/products/assemble", handleFunctions.ProductAPI.AssembleProduct},
		{"FindProducts", http.MethodGet, "/v1/products", handleFunctions.ProductAPI.FindProducts},
		{"GetProductById", http.MethodGet, "/v1/products/:productId", handleFunctions.ProductAPI.GetProductById},
		{"UpdateProduct", http.MethodPut, "/v1/products/:productId", handleFunctions.ProductAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/v1/products/:productId", handleFunctions.ProductAPI.DeleteProduct},
		{"GetProductParts", http.MethodGet, "/v1/products/:productId/parts", handleFunctions.ProductAPI.GetProductParts},
		{"AssociatePart", http.MethodPost, "/v1/products/:productId/parts/:partId", handleFunctions.ProductAPI.AssociatePart},
		{"DissociatePart", http.MethodDelete, "/v1/products/:productId/parts/:partId", handleFunctions.ProductAPI.DissociatePart},
	}
}

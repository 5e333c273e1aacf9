package inventoryserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryhttpmapper "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/http/mapper"
	"github.com/Apurer/inventory-service/internal/domains/inventory/adapters/memory"
	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	apierrors "github.com/Apurer/inventory-service/internal/shared/errors"
)

type unreliableBackend struct {
	*memory.Backend
	down bool
}

func (b *unreliableBackend) InsertPart(ctx context.Context, part domain.Part) error {
	if b.down {
		return errors.New("connection refused")
	}
	return b.Backend.InsertPart(ctx, part)
}

type testServer struct {
	router  *gin.Engine
	backend *unreliableBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend := &unreliableBackend{Backend: memory.NewBackend()}
	store := application.NewStore(backend)
	intake := application.NewIntake(store, memory.NewIdempotencyStore())
	handlers := ApiHandleFunctions{
		IDAPI:      NewIDAPI(store),
		PartAPI:    NewPartAPI(store, intake),
		ProductAPI: NewProductAPI(store, nil, intake),
	}
	return &testServer{router: NewRouterWithGinEngine(gin.New(), handlers), backend: backend}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func boltPayload() map[string]any {
	return map[string]any{"name": "Bolt", "price": "0.25", "stock": 10, "min": 1, "max": 100, "kind": "outsourced", "companyName": "Acme"}
}

func (s *testServer) addPart(t *testing.T, body map[string]any) inventoryhttpmapper.Part {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/parts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[inventoryhttpmapper.Part](t, rec)
}

func TestPartAPI_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.addPart(t, boltPayload())
	assert.Equal(t, int64(1001), created.ID)
	assert.True(t, decimal.RequireFromString("0.25").Equal(created.Price))
	require.NotNil(t, created.CompanyName)
	assert.Nil(t, created.MachineID)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/v1/parts/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bolt", decode[inventoryhttpmapper.Part](t, rec).Name)

	update := boltPayload()
	update["kind"] = "in-house"
	update["machineId"] = 42
	rec = s.do(t, http.MethodPut, fmt.Sprintf("/v1/parts/%d", created.ID), update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[inventoryhttpmapper.Part](t, rec)
	require.NotNil(t, updated.MachineID)
	assert.Equal(t, int64(42), *updated.MachineID)
	assert.Nil(t, updated.CompanyName)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/parts/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/parts/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestPartAPI_FindPartsFiltersByName(t *testing.T) {
	s := newTestServer(t)
	s.addPart(t, boltPayload())
	nut := boltPayload()
	nut["name"] = "Nut"
	s.addPart(t, nut)
	big := boltPayload()
	big["name"] = "Big BOLT"
	s.addPart(t, big)

	rec := s.do(t, http.MethodGet, "/v1/parts?name=bolt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]inventoryhttpmapper.Part](t, rec)
	require.Len(t, found, 2)
	assert.Equal(t, "Bolt", found[0].Name)
	assert.Equal(t, "Big BOLT", found[1].Name)

	rec = s.do(t, http.MethodGet, "/v1/parts", nil)
	assert.Len(t, decode[[]inventoryhttpmapper.Part](t, rec), 3)
}

func TestPartAPI_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	invalid := boltPayload()
	invalid["min"] = 50
	rec := s.do(t, http.MethodPost, "/v1/parts", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeUnprocessable, decode[apierrors.ProblemDetail](t, rec).Type)

	missingPrice := boltPayload()
	delete(missingPrice, "price")
	rec = s.do(t, http.MethodPost, "/v1/parts", missingPrice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/parts/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/parts/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "part", decode[apierrors.ProblemDetail](t, rec).Extensions["resourceType"])

	s.backend.down = true
	rec = s.do(t, http.MethodPost, "/v1/parts", boltPayload())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, true, problem.Extensions["retryable"])

	s.backend.down = false
	rec = s.do(t, http.MethodGet, "/v1/parts", nil)
	assert.Empty(t, decode[[]inventoryhttpmapper.Part](t, rec))
}

func TestPartAPI_IdempotencyKeyReplaysCreate(t *testing.T) {
	s := newTestServer(t)

	first := s.do(t, http.MethodPost, "/v1/parts", boltPayload(), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(t, http.MethodPost, "/v1/parts", boltPayload(), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode[inventoryhttpmapper.Part](t, first).ID, decode[inventoryhttpmapper.Part](t, second).ID)

	changed := boltPayload()
	changed["stock"] = 11
	rec := s.do(t, http.MethodPost, "/v1/parts", changed, "Idempotency-Key", "abc")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductAPI_AssociationsAndDelete(t *testing.T) {
	s := newTestServer(t)
	part := s.addPart(t, boltPayload())

	rec := s.do(t, http.MethodPost, "/v1/products", map[string]any{
		"name": "Kit", "price": 12.5, "stock": 1, "min": 0, "max": 5, "associatedPartIds": []int64{part.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[inventoryhttpmapper.Product](t, rec)

	path := fmt.Sprintf("/v1/products/%d/parts/%d", product.ID, part.ID)
	rec = s.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{part.ID, part.ID}, decode[inventoryhttpmapper.Product](t, rec).AssociatedPartIDs)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/products/%d/parts", product.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]inventoryhttpmapper.Part](t, rec), 2)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/products/%d", product.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for range 2 {
		rec = s.do(t, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/products/%d", product.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProductAPI_RejectsUnknownParts(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/products", map[string]any{
		"name": "Kit", "price": "1", "stock": 0, "min": 0, "max": 0, "associatedPartIds": []int64{4242},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/products", map[string]any{
		"name": "Kit", "price": "1", "associatedPartIds": []int64{-1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductAPI_AssembleInlineFallback(t *testing.T) {
	s := newTestServer(t)
	part := s.addPart(t, boltPayload())

	rec := s.do(t, http.MethodPost, "/v1/products/assemble", map[string]any{
		"product": map[string]any{"name": "Kit", "price": "3", "stock": 1, "min": 0, "max": 2},
		"partIds": []int64{part.ID, part.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assembled := decode[inventoryhttpmapper.Product](t, rec)
	assert.Equal(t, []int64{part.ID, part.ID}, assembled.AssociatedPartIDs)

	rec = s.do(t, http.MethodGet, "/v1/products?name=KIT", nil)
	assert.Len(t, decode[[]inventoryhttpmapper.Product](t, rec), 1)
}

func TestIDAPI_AllocatesSharedSequence(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/ids", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1001), decode[inventoryhttpmapper.AllocatedID](t, rec).ID)

	part := s.addPart(t, boltPayload())
	assert.Equal(t, int64(1002), part.ID)
}

func TestIDAPI_ReservedIDRedeemsOnce(t *testing.T) {
	s := newTestServer(t)
	reserved := decode[inventoryhttpmapper.AllocatedID](t, s.do(t, http.MethodPost, "/v1/ids", nil)).ID

	payload := boltPayload()
	payload["id"] = reserved
	rec := s.do(t, http.MethodPost, "/v1/parts", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, reserved, decode[inventoryhttpmapper.Part](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/v1/parts", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "an id already in use is a constraint violation")

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/parts/%d", reserved), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPost, "/v1/parts", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "deleted ids are not reissued")

	payload["id"] = 5000
	rec = s.do(t, http.MethodPost, "/v1/parts", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeUnprocessable, decode[apierrors.ProblemDetail](t, rec).Type)
}

func TestRouter_RequestIDAndHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	minted := rec.Header().Get(requestIDHeader)
	assert.NotEmpty(t, minted)

	const given = "0b4f4a3e-57a9-4c3b-9d3c-6b0c7f1d2e11"
	rec = s.do(t, http.MethodGet, "/healthz", nil, requestIDHeader, given)
	assert.Equal(t, given, rec.Header().Get(requestIDHeader))
}

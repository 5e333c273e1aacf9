//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/inventory-service/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type partPayload struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Kind        string `json:"kind"`
	CompanyName string `json:"companyName,omitempty"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func TestInventoryDeskContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	example := pacttest.ExamplePartPayload()
	requestBody := matchers.Map{}
	for key, value := range example {
		requestBody[key] = matchers.Like(value)
	}
	partBody := matchers.Map{
		"id":          matchers.Like(pacttest.ExistingPartID),
		"name":        matchers.Like(example["name"]),
		"price":       matchers.Term("0.25", `^\d+(\.\d+)?$`),
		"stock":       matchers.Like(example["stock"]),
		"min":         matchers.Like(example["min"]),
		"max":         matchers.Like(example["max"]),
		"kind":        matchers.Term("outsourced", "in-house|outsourced"),
		"companyName": matchers.Like(example["companyName"]),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	problemContentType := matchers.S("application/problem+json")

	pact.AddInteraction().
		Given(pacttest.StateInventoryBaseline).
		UponReceiving("a request to add a part").
		WithRequest("POST", "/v1/parts", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(requestBody)
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(partBody)
		})

	pact.AddInteraction().
		Given(pacttest.StatePartExists).
		UponReceiving("a request to fetch an existing part").
		WithRequest("GET", fmt.Sprintf("/v1/parts/%d", pacttest.ExistingPartID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(partBody)
		})

	pact.AddInteraction().
		Given(pacttest.StatePartMissing).
		UponReceiving("a request for a missing part").
		WithRequest("GET", fmt.Sprintf("/v1/parts/%d", pacttest.MissingPartID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", problemContentType)
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateProductWithParts).
		UponReceiving("a request to delete a product that still has parts").
		WithRequest("DELETE", fmt.Sprintf("/v1/products/%d", pacttest.ExistingProductID)).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", problemContentType)
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/conflict"),
				"status": matchers.Like(http.StatusConflict),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newInventoryClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		created, err := client.AddPart(ctx, partPayload{
			Name: "Bolt", Price: "0.25", Stock: 10, Min: 1, Max: 100, Kind: "outsourced", CompanyName: "Acme Fasteners",
		})
		if err != nil {
			return fmt.Errorf("add part: %w", err)
		}
		if created.ID == 0 {
			return errors.New("expected created part id to be set")
		}

		fetched, err := client.GetPart(ctx, pacttest.ExistingPartID)
		if err != nil {
			return fmt.Errorf("get part: %w", err)
		}
		if fetched.ID != pacttest.ExistingPartID {
			return fmt.Errorf("expected part id %d, got %d", pacttest.ExistingPartID, fetched.ID)
		}

		_, err = client.GetPart(ctx, pacttest.MissingPartID)
		if status := statusOf(err); status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for part %d, got %d", pacttest.MissingPartID, status)
		}
		if status := statusOf(client.DeleteProduct(ctx, pacttest.ExistingProductID)); status != http.StatusConflict {
			return fmt.Errorf("expected 409 deleting product %d, got %d", pacttest.ExistingProductID, status)
		}
		return nil
	})
	require.NoError(t, err)
}

func statusOf(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return 0
}

type inventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func newInventoryClient(config pactconsumer.MockServerConfig) *inventoryClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &inventoryClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *inventoryClient) AddPart(ctx context.Context, part partPayload) (*partPayload, error) {
	body, err := json.Marshal(part)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out partPayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *inventoryClient) GetPart(ctx context.Context, id int64) (*partPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/parts/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var out partPayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *inventoryClient) DeleteProduct(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/v1/products/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *inventoryClient) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, title: problem.Title, detail: problem.Detail}
}

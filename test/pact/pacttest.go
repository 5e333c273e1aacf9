//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "inventory-api"
	ConsumerName = "inventory-desk"

	StateInventoryBaseline = "inventory baseline"
	StatePartExists        = "part with id 1001 exists"
	StatePartMissing       = "no part with id 404"
	StateProductWithParts  = "product with id 2001 uses part 1001"
)

const (
	ExistingPartID    int64 = 1001
	MissingPartID     int64 = 404
	ExistingProductID int64 = 2001
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file path for the inventory desk consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExamplePartPayload is the outsourced part both sides agree on.
func ExamplePartPayload() map[string]any {
	return map[string]any{
		"name":        "Bolt",
		"price":       "0.25",
		"stock":       10,
		"min":         1,
		"max":         100,
		"kind":        "outsourced",
		"companyName": "Acme Fasteners",
	}
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/auditra/ledgerlog/internal/infrastructure/config"
	"github.com/auditra/ledgerlog/internal/infrastructure/index/qdrant"
)

const (
	testQdrantHost = "localhost"
	testQdrantPort = 6334
	testCollection = "ledgerlog_integration_test"
)

var testIndex *qdrant.Repository

func TestMain(m *testing.M) {
	// Skip if INTEGRATION_TEST is not set
	if os.Getenv("INTEGRATION_TEST") != "1" {
		os.Exit(0)
	}

	cfg := config.IndexConfig{
		Host:       testQdrantHost,
		Port:       testQdrantPort,
		Collection: testCollection,
	}

	var err error
	testIndex, err = qdrant.NewRepository(cfg)
	if err != nil {
		panic("failed to create index repository: " + err.Error())
	}

	// Ensure clean collection
	ctx := context.Background()
	_ = testIndex.DeleteCollection(ctx) // Ignore error if collection doesn't exist
	if err := testIndex.EnsureCollection(ctx); err != nil {
		panic("failed to create collection: " + err.Error())
	}

	code := m.Run()

	// Cleanup
	_ = testIndex.DeleteCollection(ctx)
	testIndex.Close()

	os.Exit(code)
}

//go:build integration

package store_test

import (
	"testing"

	"github.com/zx8086/url-shortener/internal/store"
)

func TestCouchbaseBackendIntegration(t *testing.T) {
	c := dialOrSkip(t, store.CouchbaseBackend(store.CouchbaseConfig{
		ConnectionString: getenv("COUCHBASE_URL", "couchbase://localhost"),
		Username:         getenv("COUCHBASE_USERNAME", "Administrator"),
		Password:         getenv("COUCHBASE_PASSWORD", "password"),
		Bucket:           getenv("COUCHBASE_BUCKET", "default"),
		Scope:            getenv("COUCHBASE_SCOPE", "_default"),
		Collection:       getenv("COUCHBASE_COLLECTION", "_default"),
	}))

	exerciseRepository(t, c)
}

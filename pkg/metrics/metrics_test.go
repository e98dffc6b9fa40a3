package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	// Registers the cache metrics.
	_ "github.com/Sternrassler/storefront/pkg/cache"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestMetricsRegistered(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "storefront_cache_local_entries" {
			found = true
		}
	}
	if !found {
		t.Error("Expected storefront_cache_local_entries to be registered")
	}
}

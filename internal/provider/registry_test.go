package provider_test

import (
	"testing"

	"wearsync/internal/domain"
	"wearsync/internal/provider"
	"wearsync/internal/provider/garmin"
	"wearsync/internal/provider/withings"
)

func TestRegistry(t *testing.T) {
	r := provider.NewRegistry(garmin.New(), withings.New())

	c, err := r.Get("garmin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name() != domain.ProviderGarmin {
		t.Fatalf("name = %s", c.Name())
	}

	if _, err := r.Get("fitbit"); err == nil {
		t.Fatal("expected an error for an unsupported provider")
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(all))
	}
	if all[0].Name() != domain.ProviderGarmin || all[1].Name() != domain.ProviderWithings {
		t.Fatal("expected registration order preserved")
	}
}

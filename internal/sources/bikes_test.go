package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBikesSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dublinbikes" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"network": {
				"stations": [
					{"name": "Smithfield", "free_bikes": 4, "empty_slots": 26, "extra": {"slots": 30}},
					{"name": "Portobello", "free_bikes": 10, "empty_slots": 20, "extra": {"slots": 30}}
				]
			}
		}`))
	}))
	defer srv.Close()

	src := NewBikesSource(srv.Client(), srv.URL)

	partial, err := src.Fetch(context.Background(), "dublin", nil)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	bikes := partial.Bikes
	if bikes == nil {
		t.Fatal("bikes slot not populated")
	}
	if bikes.AvailableBikes != 14 {
		t.Errorf("available bikes: got %d, want 14", bikes.AvailableBikes)
	}
	if bikes.AvailableDocks != 46 {
		t.Errorf("available docks: got %d, want 46", bikes.AvailableDocks)
	}
	if bikes.StationsReporting != 2 {
		t.Errorf("stations reporting: got %d, want 2", bikes.StationsReporting)
	}
	if bikes.Stations[0].Name != "Smithfield" || bikes.Stations[0].TotalSpaces != 30 {
		t.Errorf("station parse mismatch: %+v", bikes.Stations[0])
	}
}

func TestBikesSourceNetworkParam(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"network": {"stations": []}}`))
	}))
	defer srv.Close()

	src := NewBikesSource(srv.Client(), srv.URL)

	if _, err := src.Fetch(context.Background(), "galway", map[string]string{"network": "galway-coca-cola"}); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if gotPath != "/galway-coca-cola" {
		t.Errorf("network param not honored, got path %q", gotPath)
	}
}

func TestBikesSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewBikesSource(srv.Client(), srv.URL)
	// Keep the test fast: no retries.
	src.tr.maxRetries = 0

	if _, err := src.Fetch(context.Background(), "dublin", nil); err == nil {
		t.Fatal("expected an error for a 5xx answer")
	}
}

func TestBikesSourceName(t *testing.T) {
	src := NewBikesSource(nil, "")
	if src.Name() != "bikes" {
		t.Errorf("got %q", src.Name())
	}
}

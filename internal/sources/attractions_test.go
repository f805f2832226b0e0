package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAttractionsSourceFetch(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{
			"elements": [
				{"id": 1, "lat": 53.34, "lon": -6.26,
				 "tags": {"name": "Dublin Castle", "historic": "castle", "fee": "no", "wheelchair": "yes"}},
				{"id": 2, "center": {"lat": 53.35, "lon": -6.27},
				 "tags": {"name": "National Museum", "tourism": "museum", "fee": "yes"}},
				{"id": 3, "lat": 53.36, "lon": -6.25, "tags": {"leisure": "park"}}
			]
		}`))
	}))
	defer srv.Close()

	src := NewAttractionsSource(srv.Client(), NewGeocoder(""), srv.URL)

	partial, err := src.Fetch(context.Background(), "dublin", nil)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	at := partial.Attractions
	if at == nil {
		t.Fatal("attractions slot not populated")
	}
	if at.TotalAttractions != 3 {
		t.Errorf("total: got %d, want 3", at.TotalAttractions)
	}
	if at.AttractionsByType["castle"] != 1 || at.AttractionsByType["museum"] != 1 || at.AttractionsByType["park"] != 1 {
		t.Errorf("type counts wrong: %v", at.AttractionsByType)
	}
	if at.FreeCount != 1 {
		t.Errorf("free count: got %d, want 1", at.FreeCount)
	}
	if at.PaidCount != 1 {
		t.Errorf("paid count: got %d, want 1", at.PaidCount)
	}
	if at.WheelchairAccessibleCount != 1 {
		t.Errorf("wheelchair count: got %d, want 1", at.WheelchairAccessibleCount)
	}

	// A way without node coordinates uses its center.
	if at.Attractions[1].Latitude != 53.35 {
		t.Errorf("center coordinates not used: %+v", at.Attractions[1])
	}
	if at.Attractions[2].Name != "Unknown" {
		t.Errorf("unnamed element should default to Unknown, got %q", at.Attractions[2].Name)
	}

	if !strings.Contains(gotBody, "out:json") || !strings.Contains(gotBody, "around:5000") {
		t.Errorf("unexpected overpass query: %s", gotBody)
	}
}

func TestAttractionsSourceRadiusParam(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	src := NewAttractionsSource(srv.Client(), NewGeocoder(""), srv.URL)

	if _, err := src.Fetch(context.Background(), "dublin", map[string]string{"radius_km": "2"}); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if !strings.Contains(gotBody, "around:2000") {
		t.Errorf("radius param not honored: %s", gotBody)
	}
}

func TestAttractionsSourceMissingElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewAttractionsSource(srv.Client(), NewGeocoder(""), srv.URL)

	if _, err := src.Fetch(context.Background(), "dublin", nil); err == nil {
		t.Fatal("expected an error for a response without elements")
	}
}

func TestGeocoderKnownAreas(t *testing.T) {
	geo := NewGeocoder("")

	c, err := geo.Resolve("Dublin")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if c.Lat == 0 || c.Lon == 0 {
		t.Errorf("unexpected coordinates: %+v", c)
	}

	if _, err := geo.Resolve("nowhere-special"); err == nil {
		t.Error("unknown area without api key should fail")
	}
}

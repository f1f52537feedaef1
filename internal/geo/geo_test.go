package geo

import (
	"math"
	"testing"

	"georem/internal/domain"

	"github.com/google/uuid"
)

func TestDistance_SamePoint(t *testing.T) {
	d := Distance(37.7749, -122.4194, 37.7749, -122.4194)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistance_KnownPoints(t *testing.T) {
	// ~122m due north of the reference point.
	d := Distance(37.7749, -122.4194, 37.7760, -122.4194)
	if d < 115 || d > 130 {
		t.Errorf("expected ~122m, got %f", d)
	}

	// ~567m due north.
	d = Distance(37.7749, -122.4194, 37.7800, -122.4194)
	if d < 550 || d > 585 {
		t.Errorf("expected ~567m, got %f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Distance(37.7749, -122.4194, 55.75, 37.61)
	b := Distance(55.75, 37.61, 37.7749, -122.4194)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistance_DatelineSeam(t *testing.T) {
	// One degree of longitude across the ±180° seam at the equator.
	d := Distance(0, 179.5, 0, -179.5)
	if math.IsNaN(d) {
		t.Fatal("NaN across the dateline")
	}
	if d < 110000 || d > 112500 {
		t.Errorf("expected ~111km across the seam, got %f", d)
	}
}

func TestDistance_Poles(t *testing.T) {
	// Both coordinates are the north pole regardless of longitude.
	d := Distance(90, 0, 90, 180)
	if math.IsNaN(d) {
		t.Fatal("NaN at the pole")
	}
	if d > 0.001 {
		t.Errorf("expected ~0 at the pole, got %f", d)
	}
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	if math.IsNaN(d) {
		t.Fatal("NaN for antipodal points")
	}
	// Half the earth circumference.
	want := math.Pi * EarthRadiusM
	if math.Abs(d-want) > 20000 {
		t.Errorf("expected ~%f, got %f", want, d)
	}
}

func TestIsInside_BoundaryCountsAsInside(t *testing.T) {
	rec := domain.GeofenceRecord{ID: uuid.New(), Lat: 37.7749, Lng: -122.4194}
	sample := domain.LocationSample{Lat: 37.7760, Lng: -122.4194}

	// Radius exactly equal to the distance: <= classifies as inside.
	rec.RadiusM = Distance(sample.Lat, sample.Lng, rec.Lat, rec.Lng)
	if !IsInside(sample, rec) {
		t.Fatal("a sample exactly at distance == radius must be inside")
	}

	rec.RadiusM = rec.RadiusM - 0.01
	if IsInside(sample, rec) {
		t.Fatal("a sample past the radius must be outside")
	}
}

func TestIsInside_WithinRadius(t *testing.T) {
	rec := domain.GeofenceRecord{ID: uuid.New(), Lat: 37.7749, Lng: -122.4194, RadiusM: 150}

	if !IsInside(domain.LocationSample{Lat: 37.7749, Lng: -122.4194}, rec) {
		t.Error("center must be inside")
	}
	if !IsInside(domain.LocationSample{Lat: 37.7760, Lng: -122.4194}, rec) {
		t.Error("~122m must be inside a 150m fence")
	}
	if IsInside(domain.LocationSample{Lat: 37.7800, Lng: -122.4194}, rec) {
		t.Error("~567m must be outside a 150m fence")
	}
}

package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubMapper struct {
	km      float64
	minutes int
	err     error
	calls   int
}

func (m *stubMapper) DistanceTravelTime(_ context.Context, _, _ string) (float64, int, error) {
	m.calls++
	return m.km, m.minutes, m.err
}

type stubGeocoder struct {
	coords map[string]Coordinates
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (Coordinates, error) {
	c, ok := g.coords[address]
	if !ok {
		return Coordinates{}, errors.New("address not found")
	}
	return c, nil
}

func TestEstimateUsesMapper(t *testing.T) {
	mapper := &stubMapper{km: 12, minutes: 18}
	est := NewTravelEstimator(mapper, nil, TravelEstimatorOptions{}, nil)

	got := est.Estimate(context.Background(), "depot", "42 Rose St, Chatswood NSW 2067")
	if got != 18 {
		t.Fatalf("expected 18 minutes from mapper, got %d", got)
	}
}

func TestEstimateCacheHitAndTTL(t *testing.T) {
	now := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mapper := &stubMapper{km: 5, minutes: 10}
	est := NewTravelEstimator(mapper, nil, TravelEstimatorOptions{CacheTTL: time.Hour, Now: clock}, nil)

	ctx := context.Background()
	est.Estimate(ctx, "a", "b")
	est.Estimate(ctx, "a", "b")
	// Unordered pair: reverse direction hits the same entry.
	est.Estimate(ctx, "b", "a")
	if mapper.calls != 1 {
		t.Fatalf("expected 1 mapper call with warm cache, got %d", mapper.calls)
	}

	now = now.Add(2 * time.Hour)
	est.Estimate(ctx, "a", "b")
	if mapper.calls != 2 {
		t.Fatalf("expected refetch after TTL expiry, got %d calls", mapper.calls)
	}
}

func TestEstimateGeometryFallback(t *testing.T) {
	mapper := &stubMapper{err: errors.New("quota exceeded")}
	geocoder := &stubGeocoder{coords: map[string]Coordinates{
		"depot": {Lat: -33.7738, Lng: 150.9346},
		"job":   {Lat: -33.8688, Lng: 151.2093},
	}}
	est := NewTravelEstimator(mapper, geocoder, TravelEstimatorOptions{AvgSpeedKmh: 30}, nil)

	got := est.Estimate(context.Background(), "depot", "job")
	// ~28km straight line at 30km/h ≈ 56 minutes.
	if got < 40 || got > 75 {
		t.Fatalf("expected geometry-based estimate near 56 minutes, got %d", got)
	}
}

func TestEstimateRegionBandFallback(t *testing.T) {
	mapper := &stubMapper{err: errors.New("down")}
	est := NewTravelEstimator(mapper, nil, TravelEstimatorOptions{}, nil)

	got := est.Estimate(context.Background(), "depot", "8 George St, Parramatta NSW 2150")
	if got != 10 {
		t.Fatalf("expected parramatta band estimate of 10, got %d", got)
	}
}

func TestEstimateNeverFails(t *testing.T) {
	est := NewTravelEstimator(nil, nil, TravelEstimatorOptions{DefaultMinutes: 25}, nil)

	if got := est.Estimate(context.Background(), "somewhere", "an unmapped location"); got != 25 {
		t.Fatalf("expected fixed default of 25, got %d", got)
	}
	if got := est.Estimate(context.Background(), "same place", "same place"); got != 0 {
		t.Fatalf("expected 0 for identical origin and destination, got %d", got)
	}
	if got := est.Estimate(context.Background(), "", "dest"); got != 0 {
		t.Fatalf("expected 0 for empty origin, got %d", got)
	}
}

func TestEstimateUsesPinnedDepotCoordinates(t *testing.T) {
	mapper := &stubMapper{err: errors.New("quota exceeded")}
	geocoder := &stubGeocoder{coords: map[string]Coordinates{
		"job": {Lat: -33.8688, Lng: 151.2093},
	}}
	est := NewTravelEstimator(mapper, geocoder, TravelEstimatorOptions{
		AvgSpeedKmh:  30,
		DepotAddress: "12 Foundry Rd, Seven Hills NSW 2147",
		DepotCoords:  Coordinates{Lat: -33.7738, Lng: 150.9346},
	}, nil)

	// The geocoder cannot resolve the depot, so only the pinned
	// coordinates make the straight-line estimate possible.
	got := est.Estimate(context.Background(), "12 Foundry Rd, Seven Hills NSW 2147", "job")
	if got < 40 || got > 75 {
		t.Fatalf("expected a geometry estimate near 56 minutes from the pinned depot, got %d", got)
	}
}

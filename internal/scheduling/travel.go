package scheduling

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fieldline/intake-ai/pkg/logging"
)

// Mapper is the external mapping collaborator contract: road distance and
// travel time between two free-text addresses.
type Mapper interface {
	DistanceTravelTime(ctx context.Context, origin, destination string) (km float64, minutes int, err error)
}

// Geocoder resolves a free-text address to coordinates. Optional; used for
// the straight-line fallback when the mapper is unavailable.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// regionBands maps named-area keywords to a flat travel estimate in minutes,
// used when neither the mapper nor geocoding can resolve a destination.
// Ordered so the first match wins deterministically.
var regionBands = []struct {
	area    string
	minutes int
}{
	{"central coast", 75},
	{"sutherland", 50},
	{"campbelltown", 40},
	{"eastern", 40},
	{"inner west", 25},
	{"north shore", 30},
	{"south west", 30},
	{"northern", 30},
	{"liverpool", 25},
	{"penrith", 20},
	{"parramatta", 10},
	{"blacktown", 10},
	{"hills", 15},
	{"western", 15},
	{"cbd", 35},
	{"city", 35},
}

type travelCacheEntry struct {
	minutes   int
	fetchedAt time.Time
}

// TravelEstimator predicts driving time between job locations. It consults
// the mapping collaborator, falling back to straight-line geometry and then
// to region bands. Estimate never fails; the worst case is a fixed default.
//
// Results are cached by unordered (origin, destination) pair with a TTL.
// The cache is shared by concurrent calls; a lost overwrite of an equivalent
// value is harmless.
type TravelEstimator struct {
	mapper         Mapper
	geocoder       Geocoder
	avgSpeedKmh    float64
	defaultMinutes int
	timeout        time.Duration
	ttl            time.Duration
	known          map[string]Coordinates
	logger         *logging.Logger
	now            func() time.Time

	mu    sync.Mutex
	cache map[string]travelCacheEntry
}

// TravelEstimatorOptions tunes the estimator; zero values take defaults.
type TravelEstimatorOptions struct {
	AvgSpeedKmh    float64
	DefaultMinutes int
	Timeout        time.Duration
	CacheTTL       time.Duration
	// DepotAddress/DepotCoords pin known coordinates for the home base so
	// the straight-line fallback works for depot legs without a geocoder
	// round trip.
	DepotAddress string
	DepotCoords  Coordinates
	Now          func() time.Time
}

// NewTravelEstimator creates a TravelEstimator. mapper and geocoder may be
// nil; the estimator degrades through its fallback chain.
func NewTravelEstimator(mapper Mapper, geocoder Geocoder, opts TravelEstimatorOptions, logger *logging.Logger) *TravelEstimator {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.AvgSpeedKmh <= 0 {
		opts.AvgSpeedKmh = 30
	}
	if opts.DefaultMinutes <= 0 {
		opts.DefaultMinutes = 25
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	known := make(map[string]Coordinates)
	if addr := strings.ToLower(strings.TrimSpace(opts.DepotAddress)); addr != "" && (opts.DepotCoords != Coordinates{}) {
		known[addr] = opts.DepotCoords
	}
	return &TravelEstimator{
		mapper:         mapper,
		geocoder:       geocoder,
		avgSpeedKmh:    opts.AvgSpeedKmh,
		defaultMinutes: opts.DefaultMinutes,
		timeout:        opts.Timeout,
		ttl:            opts.CacheTTL,
		known:          known,
		logger:         logger.Component("travel"),
		now:            opts.Now,
		cache:          make(map[string]travelCacheEntry),
	}
}

// Estimate returns the travel time in minutes between origin and destination.
func (e *TravelEstimator) Estimate(ctx context.Context, origin, destination string) int {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" || strings.EqualFold(origin, destination) {
		return 0
	}

	key := cacheKey(origin, destination)
	if minutes, ok := e.cached(key); ok {
		return minutes
	}

	minutes := e.lookup(ctx, origin, destination)
	e.store(key, minutes)
	return minutes
}

func (e *TravelEstimator) lookup(ctx context.Context, origin, destination string) int {
	if e.mapper != nil {
		mapCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		if _, minutes, err := e.mapper.DistanceTravelTime(mapCtx, origin, destination); err == nil && minutes > 0 {
			return minutes
		} else if err != nil {
			e.logger.Warn("mapping collaborator failed, using fallback estimate",
				"error", err, "destination", destination)
		}
	}

	if minutes, ok := e.geometryEstimate(ctx, origin, destination); ok {
		return minutes
	}

	if minutes, ok := bandEstimate(destination); ok {
		return minutes
	}

	return e.defaultMinutes
}

// geometryEstimate derives minutes from straight-line distance at an assumed
// average urban speed.
func (e *TravelEstimator) geometryEstimate(ctx context.Context, origin, destination string) (int, bool) {
	from, ok := e.resolve(ctx, origin)
	if !ok {
		return 0, false
	}
	to, ok := e.resolve(ctx, destination)
	if !ok {
		return 0, false
	}

	km := HaversineKm(from, to)
	minutes := int(km / e.avgSpeedKmh * 60)
	if minutes < 5 {
		minutes = 5
	}
	return minutes, true
}

// resolve turns an address into coordinates, consulting pinned locations
// before the geocoder.
func (e *TravelEstimator) resolve(ctx context.Context, address string) (Coordinates, bool) {
	if c, ok := e.known[strings.ToLower(strings.TrimSpace(address))]; ok {
		return c, true
	}
	if e.geocoder == nil {
		return Coordinates{}, false
	}
	geoCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	c, err := e.geocoder.Geocode(geoCtx, address)
	if err != nil {
		return Coordinates{}, false
	}
	return c, true
}

func bandEstimate(destination string) (int, bool) {
	dest := strings.ToLower(destination)
	for _, band := range regionBands {
		if strings.Contains(dest, band.area) {
			return band.minutes, true
		}
	}
	return 0, false
}

func (e *TravelEstimator) cached(key string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[key]
	if !ok {
		return 0, false
	}
	if e.now().Sub(entry.fetchedAt) > e.ttl {
		delete(e.cache, key)
		return 0, false
	}
	return entry.minutes, true
}

func (e *TravelEstimator) store(key string, minutes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key] = travelCacheEntry{minutes: minutes, fetchedAt: e.now()}
}

// cacheKey is insensitive to pair order so A->B and B->A share an entry.
func cacheKey(origin, destination string) string {
	a := strings.ToLower(origin)
	b := strings.ToLower(destination)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

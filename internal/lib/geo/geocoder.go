package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
)

// Lookup outcomes, used as the metrics label.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultCached = "cached"
	ResultError  = "error"
)

// Cache remembers geocoding outcomes, including addresses that resolved to
// nothing, so repeated lookups never reach the upstream service.
type Cache interface {
	// Lookup reports whether address has a cached outcome (cached) and, if
	// so, whether that outcome was a location (found).
	Lookup(ctx context.Context, address string) (p Point, found, cached bool, err error)
	// Store caches p for address. A nil p caches a miss.
	Store(ctx context.Context, address string, p *Point) error
}

// Geocoder resolves addresses through a Nominatim-compatible search API.
type Geocoder struct {
	cfg     *config.GeocodingConfig
	client  *http.Client
	cache   Cache
	metrics *metrics.Metrics
	logger  *zerolog.Logger

	inflight singleflight.Group
}

// NewGeocoder builds a Geocoder. cache and m may be nil.
//
// Outgoing calls are wrapped in a New Relic round tripper, which records an
// external segment when the request context carries a transaction.
func NewGeocoder(cfg *config.GeocodingConfig, cache Cache, m *metrics.Metrics, logger *zerolog.Logger) *Geocoder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Geocoder{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// nominatimPlace is the subset of a Nominatim search result we read.
// Coordinates come back as strings.
type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type lookupResult struct {
	point Point
	found bool
}

// Geocode resolves address to coordinates. found is false when the address
// is blank or the service knows no such place; err is set only when the
// service could not be asked (network, status, decoding).
func (g *Geocoder) Geocode(ctx context.Context, address string) (Point, bool, error) {
	address = normalizeAddress(address)
	if address == "" {
		return Point{}, false, nil
	}

	if g.cache != nil {
		p, found, cached, err := g.cache.Lookup(ctx, address)
		if err != nil {
			g.logger.Warn().Err(err).Msg("geocode cache lookup failed")
		} else if cached {
			g.metrics.GeocodeLookup(ResultCached)
			return p, found, nil
		}
	}

	// Concurrent lookups of the same address share one upstream call. The
	// call outlives any single caller; the client timeout still bounds it.
	ch := g.inflight.DoChan(CacheKey(address), func() (interface{}, error) {
		return g.search(context.WithoutCancel(ctx), address)
	})

	var out singleflight.Result
	select {
	case <-ctx.Done():
		return Point{}, false, ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		g.metrics.GeocodeLookup(ResultError)
		return Point{}, false, out.Err
	}

	res := out.Val.(lookupResult)
	if res.found {
		g.metrics.GeocodeLookup(ResultHit)
	} else {
		g.metrics.GeocodeLookup(ResultMiss)
	}

	if g.cache != nil {
		var stored *Point
		if res.found {
			stored = &res.point
		}
		if err := g.cache.Store(ctx, address, stored); err != nil {
			g.logger.Warn().Err(err).Msg("geocode cache store failed")
		}
	}

	return res.point, res.found, nil
}

func (g *Geocoder) search(ctx context.Context, address string) (lookupResult, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address+g.cfg.CountrySuffix)

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return lookupResult{}, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return lookupResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lookupResult{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return lookupResult{}, fmt.Errorf("decoding geocode response: %w", err)
	}

	if len(places) == 0 {
		g.logger.Debug().Str("address", address).Msg("address not found")
		return lookupResult{}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return lookupResult{}, fmt.Errorf("parsing latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return lookupResult{}, fmt.Errorf("parsing longitude %q: %w", places[0].Lon, err)
	}

	return lookupResult{point: Point{Lat: lat, Lon: lon}, found: true}, nil
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

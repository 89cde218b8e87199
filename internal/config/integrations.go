package config

import "time"

// GeocodingConfig points the geocoder at a Nominatim-compatible service.
type GeocodingConfig struct {
	// BaseURL is the root of the geocoding API (the "/search" path is appended).
	BaseURL string `koanf:"base_url"`

	// UserAgent identifies the app; Nominatim blocks anonymous agents.
	UserAgent string `koanf:"user_agent"`

	// CountrySuffix narrows free-text addresses to a country, e.g. ", Chile".
	CountrySuffix string `koanf:"country_suffix"`

	// Timeout bounds a single upstream lookup.
	Timeout time.Duration `koanf:"timeout"`

	// CacheTTL is how long a lookup result (hit or miss) stays in Redis.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// DefaultGeocodingConfig returns the public OpenStreetMap Nominatim settings.
func DefaultGeocodingConfig() *GeocodingConfig {
	return &GeocodingConfig{
		BaseURL:       "https://nominatim.openstreetmap.org",
		UserAgent:     "zerby_app_v2_client",
		CountrySuffix: ", Chile",
		Timeout:       10 * time.Second,
		CacheTTL:      30 * 24 * time.Hour,
	}
}

func (g *GeocodingConfig) fillDefaults() {
	d := DefaultGeocodingConfig()
	if g.BaseURL == "" {
		g.BaseURL = d.BaseURL
	}
	if g.UserAgent == "" {
		g.UserAgent = d.UserAgent
	}
	if g.Timeout <= 0 {
		g.Timeout = d.Timeout
	}
	if g.CacheTTL <= 0 {
		g.CacheTTL = d.CacheTTL
	}
	// CountrySuffix may legitimately be empty, leave it alone.
}

// StorageConfig controls where uploaded portfolio images live.
type StorageConfig struct {
	// UploadDir is the directory on disk that receives uploads.
	UploadDir string `koanf:"upload_dir"`

	// PublicPath is the URL prefix the uploads are served from.
	PublicPath string `koanf:"public_path"`

	// MaxUploadBytes caps a single upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// DefaultStorageConfig keeps uploads under ./static/uploads, 16 MB max.
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		UploadDir:      "static/uploads",
		PublicPath:     "/static/uploads",
		MaxUploadBytes: 16 << 20,
	}
}

func (s *StorageConfig) fillDefaults() {
	d := DefaultStorageConfig()
	if s.UploadDir == "" {
		s.UploadDir = d.UploadDir
	}
	if s.PublicPath == "" {
		s.PublicPath = d.PublicPath
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = d.MaxUploadBytes
	}
}

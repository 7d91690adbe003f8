// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() with defaults, Load(ctx) with the full layering.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DatabaseDSN selects the database. A postgres URL or key=value DSN
	// picks the postgres driver, anything else is treated as a sqlite path.
	DatabaseDSN string `koanf:"database_dsn"`

	// ClientAPIKey guards event submission. Empty disables the check.
	ClientAPIKey string `koanf:"client_api_key"`

	// AdminAPIKey guards event confirmation. Empty disables the check.
	AdminAPIKey string `koanf:"admin_api_key"`

	// MaxBountyLimit caps GET /api/v1/bounties?limit.
	MaxBountyLimit int `koanf:"max_bounty_limit"`

	// EnrichmentQueueSize bounds the in-memory enrichment queue.
	EnrichmentQueueSize int `koanf:"enrichment_queue_size"`

	// EnrichmentWorkerCount sets the number of enrichment workers.
	EnrichmentWorkerCount int `koanf:"enrichment_worker_count"`

	// DirectoryBaseURL, DirectoryAPIKey and DirectoryMode configure the
	// community directory used for org lookups. An empty key disables
	// enrichment entirely.
	DirectoryBaseURL string `koanf:"directory_base_url"`
	DirectoryAPIKey  string `koanf:"directory_api_key"`
	DirectoryMode    string `koanf:"directory_mode"`

	// OrgTag is the org whose members form the tracked roster.
	OrgTag string `koanf:"org_tag"`

	// RosterMembers is the static fallback roster.
	RosterMembers []string `koanf:"roster_members"`

	// Watcher configures the log-tailing client.
	Watcher WatcherConfig `koanf:"watcher"`
}

// WatcherConfig contains the log watcher settings.
type WatcherConfig struct {
	// LogPath points at the game log to tail.
	LogPath string `koanf:"log_path"`

	// ServerURL is the tracker base URL events are submitted to.
	ServerURL string `koanf:"server_url"`

	// PollIntervalMS is the end-of-file poll interval.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// DedupeSize sets the duplicate suppression window.
	DedupeSize int `koanf:"dedupe_size"`

	// FetchRoster pulls the roster from the server at startup.
	FetchRoster bool `koanf:"fetch_roster"`

	// ShipValueEstimate is attached to every submission.
	ShipValueEstimate float64 `koanf:"ship_value_estimate"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8000",
		DatabaseDSN:           "app.db",
		MaxBountyLimit:        100,
		EnrichmentQueueSize:   1000,
		EnrichmentWorkerCount: 4,
		DirectoryBaseURL:      "https://api.starcitizen-api.com",
		DirectoryMode:         "live",
		Watcher: WatcherConfig{
			ServerURL:      "http://127.0.0.1:8000",
			PollIntervalMS: 200,
			DedupeSize:     200,
			FetchRoster:    true,
		},
	}
}

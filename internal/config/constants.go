package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "mediamerge"

	// EnvPrefix namespaces every environment variable, e.g.
	// MEDIAMERGE_SERVER_PORT
	EnvPrefix = "MEDIAMERGE"

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// WebSocket
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Sessions
	DefaultSessionTTL    = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute

	// Batches
	DefaultMaxFiles = 50

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "logs/mediamerge.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints
	APIBasePath     = "/api"
	MetricsEndpoint = "/metrics"
)

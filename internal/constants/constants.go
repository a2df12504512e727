package constants

import "time"

const AppName = "vgw"

// Network defaults
const (
	DefaultListen          = "0.0.0.0:443"
	DefaultCustodianSocket = "/var/run/vgw/custodian.sock"
	MaxCustodianConns      = 16
)

// Record layer
const (
	// PrintfBufSize is the fixed scratch buffer for formatted sends;
	// longer renderings are truncated, never grown.
	PrintfBufSize = 1024
	FileChunkSize = 512
	// MaxResponseSize is the largest custodian response body a 2-byte
	// length field can describe.
	MaxResponseSize = 65535
)

// Session resumption cache
const (
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = time.Hour
	RedisKeyPrefix       = "vgw:resume:"
)

// TLS defaults
const (
	DefaultPriorities = "NORMAL:%SERVER_PRECEDENCE:%COMPAT"
)

// Audit logging
const (
	MaxAuditLogsPerMinute = 120
)

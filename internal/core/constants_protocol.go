package core

// Default config constants
const (
	DefaultPort             = "8000"
	DefaultGinMode          = "release"
	DefaultModelsConfigPath = "models.json"
	DefaultRateLimit        = 120
	CORSMaxAge              = "86400"
)

// Content type and header constants
const (
	ContentTypeJSON     = "application/json"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"
	HeaderXAPIKey       = "x-api-key"
	AuthBearerPrefix    = "Bearer "
	UserAgent           = "netxlate/" + Version
)

// Response outcome labels
const (
	OutcomeLabelSuccess  = "success"
	OutcomeLabelFailure  = "failure"
	OutcomeLabelBusy     = "busy"
	OutcomeLabelNoResult = "no_result"
)

package core

import "time"

// Version is the current application version, compared against the release feed.
const Version = "1.1.0"

// Request limits
const (
	MaxCustomInstructionsLength = 2000
	MaxSourceTextLength         = 256 * 1024
)

// Backend (generative text API) constants
const (
	GeminiEndpointTemplate = "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent"
	ModelPlaceholder       = "{model}"
	CredentialQueryParam   = "key"
	DefaultModelID         = "gemini-1.5-flash-002"
)

// Action identifiers, used for logging and metrics
const (
	ActionTranslate = "translate"
	ActionExplain   = "explain"
	ActionTestPlan  = "test-plan"
)

// Session constants
const (
	DefaultMaxSessions = 1000
	SessionIDPrefix    = "sess_"
)

// Update check constants
const (
	DefaultUpdateRepo      = "mangdodo007/ai-network-config-converter"
	GitHubReleasesEndpoint = "https://api.github.com/repos/%s/releases/latest"
	UpdateCheckCacheTTL    = 1 * time.Hour
	UpdateCacheKey         = "update:latest"
)

// Vendor selection sentinel meaning "let the backend detect it"
const VendorAuto = "auto"

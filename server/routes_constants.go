package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth routes
	RouteAuthSignup  = "/auth/signup"
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthMe      = "/auth/me"

	// Operational routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

// Cookie names delivered to browsers. The access cookie is what protected
// collaborator routes read on every request.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

// Machine-readable reason codes carried in error response bodies.
const (
	ReasonTokenMissing       = "TOKEN_MISSING"
	ReasonTokenInvalid       = "TOKEN_INVALID"
	ReasonTokenExpired       = "TOKEN_EXPIRED"
	ReasonTokenRevoked       = "TOKEN_REVOKED"
	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
	ReasonConflict           = "CONFLICT"
	ReasonBadRequest         = "BAD_REQUEST"
	ReasonStoreUnavailable   = "STORE_UNAVAILABLE"
)

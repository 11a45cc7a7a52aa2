package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome    = "/"
	RouteToggle  = "/toggle/:index"
	RouteState   = "/state"
	RouteHealthz = "/healthz"
)

// WinMessage is shown to the player when a line completes.
const WinMessage = "BINGO!"

// HX-Trigger event names
const (
	EventBingo     = "bingo"
	EventRateLimit = "rate-limit-exceeded"
)

// Error message constants
const (
	ErrorInvalidIndex     = "Card index must be between 0 and 24."
	ErrorBoardUnavailable = "Could not load your card. Please try again."
	ErrorTooManyRequests  = "Too many requests. Please slow down."
)

type contextKey string

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

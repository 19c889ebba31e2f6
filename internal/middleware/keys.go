package middleware

// ContextKey is the type of the keys this package stores in fiber.Ctx.Locals.
type ContextKey string

const (
	RequestFileLoggerKey ContextKey = "requestFileLogger"
	RequestDBLoggerKey   ContextKey = "requestDBLogger"
	RequestIDKey         ContextKey = "requestID"
	SubjectKey           ContextKey = "subject" // ingestion token subject

	RequestIDHeader     = "X-Request-ID"
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

package middleware

// contextKey names values stored on the gin context.
type contextKey string

const (
	// UserIDKey holds the authenticated user's ID (string). The logger reads
	// the same key when recording HTTP errors.
	UserIDKey contextKey = "user_id"
	// UserRoleKey holds the authenticated user's role (types.Role).
	UserRoleKey contextKey = "user_role"
	// RequestIDKey holds the request ID.
	RequestIDKey contextKey = "request_id"
)

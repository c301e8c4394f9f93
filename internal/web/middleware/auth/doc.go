// Package auth provides the session-check middleware for protected routes.
//
// The middleware reads the session cookie, loads the session data from the
// store and rejects the request with a generic unauthorized response when no
// valid session exists. On success the current user is placed in
// fiber.Locals for downstream handlers.
package auth

// Package cli implements capsulectl, the operator tool for the time capsule
// server.
//
// Commands:
//   - token: mint a bearer token for a user id with the server's JWT secret
//   - health: query the gRPC health endpoint, optionally for the sweep service
//
// The secret is read from JWT_SECRET or, when unset, prompted for without echo.
package cli

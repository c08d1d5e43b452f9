// Package middleware adapts the authcore engine to net/http.
//
// [Guard] reads the two credential cookies, calls Engine.Authenticate, and
// injects the result into the request context. When the engine renewed the
// access credential the replacement cookie is written before the handler
// runs. [RequireRole] layers the role gate on top of a guarded route.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It makes no
// authentication decision itself; pass or reject comes from
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond the closed role set.
package middleware

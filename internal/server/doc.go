// Package server exposes the data-access layer as a small JSON HTTP API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a path may carry
// several methods and wildcards such as {id}.
//
// # API
//
// [API] mounts one route set per configured API version under the prefix, e.g. /api/v1/users.
// Each request runs in its own unit of work, committed only by handlers that write.
//
// Errors from the data layer are translated once, in [API.fail]:
//   - not found is 404
//   - ambiguous filters, unknown fields and invalid payloads are 400
//   - integrity violations (unique and foreign key failures) are 409
//   - anything else is 500 and logged
//
// Schedule listings carry the x-min-date-from and x-max-date-till headers with the
// creation date bounds of the matching rows.
package server

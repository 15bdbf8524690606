// Package api contains the HTTP handlers for the recording conversion
// service. Handlers translate between HTTP and the service layer: they
// decode and validate requests, call services, and map service errors
// to status codes. Conversion itself always runs in the background;
// the convert endpoint only accepts the request.
package api

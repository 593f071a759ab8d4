// Package api exposes the REST surface: ticker listings, historical
// series, market controls, and alert CRUD.
//
// Every response is a success/data/error/timestamp envelope. Handlers
// are thin wrappers over the simulation and alert engines; not-found
// and validation failures map to structured error envelopes, never to
// panics or bare status codes. User identity for alert endpoints comes
// from the X-User-ID header; token issuance and verification live in an
// external collaborator.
package api

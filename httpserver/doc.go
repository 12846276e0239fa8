// Package httpserver exposes the trust registry over HTTP.
//
// The API is split into three surfaces:
//
//   - /api/admin/... protocol administration: initialization, pause,
//     admin transfer, authority management, revocation epoch
//   - /api/... authenticated mutations: agent registration, attestation
//     submission and revocation, signal refresh, flagging, evidence upload
//   - /api/public/... unauthenticated reads of registry records and
//     evidence blobs
//
// Mutating endpoints identify the acting key through the X-Trust-Signer
// header; authorization decisions are made by the registry itself, so the
// HTTP layer never duplicates the admin or authority checks.
//
// The server also exposes /livez, /readyz, /drain and /undrain for load
// balancer integration, and an optional pprof endpoint under /debug.
package httpserver

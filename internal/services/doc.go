// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation IDs and the inbound base
//     URL for logging and link generation.
//   - Structured error markers plus the Wrap helper, and the HTTPStatus mapping
//     that turns those markers into API status codes.
package services

// Package client talks to the gallery metadata API.
//
// # Overview
//
// The package provides:
//  1. The transport-agnostic Client contract: RequestSlots, AnnounceCompletion
//     and FetchAll.
//  2. HTTPClient, a JSON-over-HTTPS implementation that attaches the bearer
//     access token to every request, applies a short per-call timeout and
//     validates response payloads before handing them out.
//
// # Error Handling
//
// Every failure is an *APIError whose Err matches one of the sentinels with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrUnexpectedStatus,
// ErrMalformedResponse. A nil error always comes with a complete, validated
// result.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations honor context
// cancellation.
package client

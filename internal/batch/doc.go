// Package batch executes many Calendar API sub-requests as a single
// multipart/mixed HTTP round trip against the batch endpoint.
//
// The engine is split into a pure codec (EncodeRequests/DecodeResponses,
// unit-testable against fixture payloads) and a thin transport wrapper that
// performs exactly one POST per attempt and retries the whole call with
// exponential backoff on transport failures, 429s and 5xx responses.
//
// Sub-response order always matches sub-request order. A sub-request that
// failed inside an otherwise successful batch is reported as an error outcome
// at its position and is never retried; retries only ever re-issue the entire
// batch, so callers issuing writes must account for possible duplicated
// effects after a mid-flight transport failure.
package batch

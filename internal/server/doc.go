// Package server exposes the review engine over HTTP.
//
// POST /api/reviews starts a run in the background and returns its id;
// GET /api/reviews/{id} returns the report once finished. Progress
// streams over Server-Sent Events (/events) or a WebSocket (/ws), each
// delivering a replay of everything already emitted followed by live
// events until the run's terminal event. POST /api/webhook accepts
// GitHub pull_request deliveries, verified against the configured
// secret, and reviews the referenced PR.
//
// Each run owns a progress bus drained by the run store, which keeps a
// replay log and fans events out to stream clients. A client that
// abandons a running review's last stream cancels the run; in-flight
// analysis still completes and the partial report remains retrievable.
package server

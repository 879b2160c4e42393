// Package progress publishes review lifecycle events over a bounded,
// non-blocking bus.
//
// A review run emits an ordered stream of [Event] values through a
// [Bus]: run-level stages such as [StageStarted] and [StageCompleted],
// and per-file windows ([StageAnalyzingFile] ... [StageFileAnalyzed])
// containing the per-agent events of that file. Producers never block on
// a slow consumer; the bus drops the oldest buffered event instead and
// accounts for it via [Bus.Dropped].
package progress

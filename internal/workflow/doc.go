// Package workflow implements the conversion pipeline that turns a raw
// recording into structured knowledge: a transcript, a summary, and
// extracted action items.
//
// The pipeline topology is fixed: transcription first, then summary and
// task extraction concurrently, then finalization. Each external call is
// wrapped with bounded retry and deterministic backoff, and the run's
// lifecycle state is persisted on the recording so observers can poll
// progress. Collaborators (model calls, stores, cache, notifier) are
// consumed through narrow interfaces and injected into the Converter.
package workflow

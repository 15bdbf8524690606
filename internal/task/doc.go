// Package task provides durable background task processing: a buffered
// in-memory queue, a worker pool that drains it, and a runner that
// composes the two with database persistence so tasks survive restarts.
// Tasks persisted before a crash are rehydrated through per-type
// factories and requeued on startup.
package task

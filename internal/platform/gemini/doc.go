// Package gemini implements the model-backed collaborators of the
// conversion pipeline (transcription, summarization and task
// extraction) on top of Google's Gemini API. Each collaborator makes a
// single model call per invocation; bounded retry is owned by the
// workflow layer, so a collaborator only classifies its failures as
// retryable or permanent.
package gemini

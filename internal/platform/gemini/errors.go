package gemini

import "errors"

// Sentinel errors returned by the gemini collaborators. ErrContentBlocked
// and ErrInvalidResponse are permanent: retrying the same input will not
// help, so the workflow's retry wrapper burns through them quickly and
// surfaces the underlying cause.
var (
	// ErrInvalidConfig indicates the collaborator was constructed with
	// invalid or missing configuration.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrContentBlocked indicates the model refused the input on safety
	// grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrInvalidResponse indicates the model returned a response that
	// could not be interpreted (empty, malformed JSON, missing fields).
	ErrInvalidResponse = errors.New("invalid model response")
)

package gemini

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/minutely/minute-api/internal/domain"
)

// Prompt templates for the three model collaborators. Each instructs the
// model to answer with JSON matching the collaborator's response schema.
const (
	transcriptionPromptTemplate = `Transcribe the attached audio recording completely and accurately.
Identify distinct speakers and label them speaker_1, speaker_2, and so on.
Respond with JSON only, using this shape:
{"transcript": "<full transcript text>", "utterances": [{"speaker_id": "<speaker label>", "text": "<utterance text>", "start_ms": <start offset in milliseconds>}]}`

	summaryPromptTemplate = `Summarize the following meeting transcript in a few concise paragraphs.
Capture decisions made, topics discussed, and open questions.
Respond with JSON only, using this shape: {"summary": "<summary text>"}

Transcript:
{{.Transcript}}
{{if .Utterances}}
Speaker turns:
{{.Utterances}}{{end}}`

	extractionPromptTemplate = `Extract the action items from the following meeting transcript.
An action item is a concrete piece of work someone committed to. Do not invent tasks.
Respond with JSON only, using this shape:
{"tasks": [{"title": "<short imperative title>", "description": "<what needs to happen and why>"}]}

Transcript:
{{.Transcript}}
{{if .Utterances}}
Speaker turns:
{{.Utterances}}{{end}}`
)

var (
	summaryTmpl    = template.Must(template.New("summary").Parse(summaryPromptTemplate))
	extractionTmpl = template.Must(template.New("extraction").Parse(extractionPromptTemplate))
)

// transcriptPromptData feeds the summary and extraction templates.
type transcriptPromptData struct {
	Transcript string
	Utterances string
}

// renderTranscriptPrompt executes tmpl with the transcript and an
// optional rendered utterance block.
func renderTranscriptPrompt(tmpl *template.Template, transcript string, utterances []domain.Utterance) (string, error) {
	data := transcriptPromptData{
		Transcript: transcript,
		Utterances: renderUtterances(utterances),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// renderUtterances formats the speaker turns as one line per utterance,
// or returns the empty string when no context is available.
func renderUtterances(utterances []domain.Utterance) string {
	if len(utterances) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, u := range utterances {
		fmt.Fprintf(&sb, "[%d ms] %s: %s\n", u.StartMs, u.SpeakerID, u.Text)
	}
	return sb.String()
}

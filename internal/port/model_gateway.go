package port

import "context"

// Attachment is a document sent alongside a prompt.
type Attachment struct {
	Data        []byte
	ContentType string
	FileName    string
}

// GenerateInput carries one model request: a prompt and, for extraction, the
// source document.
type GenerateInput struct {
	Prompt     string
	Attachment *Attachment
}

// GenerateOutput is the raw text a model returned.
type GenerateOutput struct {
	Text  string
	Model string
}

// ModelGateway abstracts a hosted generative model. One call per invocation,
// the whole response is awaited.
type ModelGateway interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error)
}

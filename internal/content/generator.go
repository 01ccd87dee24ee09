package content

import "context"

// Prompt asks a generator for a post.
type Prompt struct {
	Topic     string
	Tone      string
	Language  string
	Platform  string
	MaxLength int
}

// Draft is a generated post.
type Draft struct {
	Title    string
	Content  string
	Hashtags []string
}

// Message composes the draft into a publishable message.
func (d Draft) Message() string {
	return Compose(d.Title, d.Content, d.Hashtags)
}

// Generator produces drafts. The implementation is an external service.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (Draft, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt Prompt) (Draft, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (Draft, error) {
	return f(ctx, prompt)
}

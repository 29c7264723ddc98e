package ai

import "context"

// Bound ties a Client to its configured chat and embedding models so callers
// don't thread config through every call site.
type Bound struct {
	client *Client
	chat   ChatConfig
	emb    EmbeddingConfig
}

func NewBound(client *Client, chat ChatConfig, emb EmbeddingConfig) *Bound {
	return &Bound{client: client, chat: chat, emb: emb}
}

func (b *Bound) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return b.client.Complete(ctx, b.chat, messages)
}

func (b *Bound) CompleteWithTools(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatMessage, error) {
	return b.client.CompleteWithTools(ctx, b.chat, messages, tools)
}

func (b *Bound) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.client.Embed(ctx, b.emb, text)
}

package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	defaultChatModelName = "gemini-2.5-flash"

	chatSystemInstruction = "You are MrAgenda, a friendly and helpful AI assistant. Your primary language is Turkish. " +
		"Be conversational and helpful. If the user provides a very short or vague input like \"deneme\" or \"selam\", " +
		"respond with a warm greeting and ask how you can help, for example: \"Merhaba! Size nasıl yardımcı olabilirim?\". " +
		"For specific questions, provide direct and concise answers. Use Markdown for formatting when appropriate " +
		"(e.g., **bold**, *italic*, lists). For structured data like schedules or tables, use fenced code blocks (```) " +
		"to preserve formatting."
)

// LLMService is the Gemini-backed stream source.
type LLMService struct {
	client *genai.Client
	logger zerolog.Logger
}

func NewLLMService(ctx context.Context, apiKey string, logger zerolog.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, logger: logger}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Error().Err(err).Msg("error closing GenAI client")
		}
	}
}

// RequestStream starts a streamed reply for the given history. The last
// turn must be the user's new message; everything before it becomes chat
// history.
func (s *LLMService) RequestStream(ctx context.Context, history []Turn) (Stream, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("history is empty, nothing to reply to")
	}
	last := history[len(history)-1]
	if last.Role != RoleUser {
		return nil, fmt.Errorf("last history entry is %q, expected %q", last.Role, RoleUser)
	}

	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}

	chatSession := model.StartChat()
	for _, turn := range history[:len(history)-1] {
		chatSession.History = append(chatSession.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	iter := chatSession.SendMessageStream(ctx, genai.Text(last.Text))
	return &geminiStream{iter: iter}, nil
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (g *geminiStream) Next(ctx context.Context) (Fragment, error) {
	// The iterator blocks on the ctx given to SendMessageStream; checking
	// here lets a caller abandon the turn between fragments as well.
	if err := ctx.Err(); err != nil {
		return Fragment{}, err
	}

	for {
		resp, err := g.iter.Next()
		if err == iterator.Done {
			return Fragment{}, io.EOF
		}
		if err != nil {
			return Fragment{}, fmt.Errorf("gemini stream failed: %w", err)
		}

		text := responseText(resp)
		if text == "" {
			continue // candidate with no text parts, pull the next chunk
		}
		return Fragment{Text: text}, nil
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

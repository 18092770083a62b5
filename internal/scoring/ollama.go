package scoring

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"charyscan/internal/ports"
)

// Small local models choke on long HTML bodies; convert to markdown and
// cap the size before prompting.
const maxScoreContent = 10000

const defaultScorePrompt = `You assess blog posts for charitable intent. ` +
	`Return ONLY JSON of the shape {"score": number 0-10, "summary": "string", "reason": "string", "evidence": ["string"]}. ` +
	`Score 0 means no charitable intent, 10 means a concrete, verifiable charitable action.`

// OllamaScorer runs the assessment against a local model.
type OllamaScorer struct {
	llm       *ollama.LLM
	converter *md.Converter
	prompt    string
}

var _ ports.Scorer = (*OllamaScorer)(nil)

// NewOllamaScorer connects to an Ollama server; an empty prompt selects
// the built-in one.
func NewOllamaScorer(serverURL, model, prompt string) (*OllamaScorer, error) {
	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = defaultScorePrompt
	}

	return &OllamaScorer{
		llm:       llm,
		converter: md.NewConverter("", true, nil),
		prompt:    prompt,
	}, nil
}

// Score prompts the model and returns its raw text; the model is asked
// for JSON but the answer still goes through the normalizer, which
// copes when it drifts into prose.
func (s *OllamaScorer) Score(ctx context.Context, title, body string) (string, error) {
	content := body
	if converted, err := s.converter.ConvertString(body); err == nil {
		content = converted
	}
	if len(content) > maxScoreContent {
		content = content[:maxScoreContent]
	}

	prompt := fmt.Sprintf("%s\n\nTitle: %s\n\nContent: %s", s.prompt, title, content)

	res, err := s.llm.Call(ctx, prompt, llms.WithJSONMode())
	if err != nil {
		return "", fmt.Errorf("ollama call: %w", err)
	}
	return strings.TrimSpace(res), nil
}

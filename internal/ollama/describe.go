package ollama

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// StyleDescriber expands a bare style label ("jazz") into a richer prompt
// for the generation engine's style embedding, so the same label does not
// always land on the same point in style space.
type StyleDescriber struct {
	client *Client

	mu   sync.Mutex
	last map[string]string // label -> last prompt used (avoid repeats)
}

// NewStyleDescriber creates a describer backed by an Ollama client.
func NewStyleDescriber(client *Client) *StyleDescriber {
	return &StyleDescriber{
		client: client,
		last:   make(map[string]string),
	}
}

const describeSystemPrompt = `You are a music style prompt writer for a live generative music model.

Your job: given a genre label, output ONE prompt of 15-30 words that describes the sound of that genre.

Rules:
- Describe instruments, timbre, tempo, mood, and production style. Nothing else.
- Be specific: "warm Rhodes piano with gentle chorus" not just "piano".
- Include tempo guidance: BPM numbers or tempo words.
- Each prompt MUST be meaningfully different from any previous prompt.

NEVER include:
- Lyrics, vocals, or voice references.
- Song titles or artist names.
- Explanations, preambles, quotes, or formatting.

Output format: ONLY the prompt text. No quotes. No "Here's a prompt:". Just the raw prompt.

/no_think`

// Describe returns an enriched style prompt for a label, or empty string on
// failure (callers fall back to the bare label).
func (d *StyleDescriber) Describe(ctx context.Context, label string) string {
	d.mu.Lock()
	last := d.last[label]
	d.mu.Unlock()

	prompt := fmt.Sprintf("Genre: %s", label)
	if last != "" {
		prompt += fmt.Sprintf("\nPrevious prompt (do NOT repeat this): %s", last)
	}

	out, err := d.client.Generate(ctx, describeSystemPrompt, prompt)
	if err != nil {
		log.Warn("ollama style prompt failed", "label", label, "err", err)
		return ""
	}

	out = clean(out)
	if len(out) < 10 {
		log.Warn("ollama returned unusable style prompt", "got", out)
		return ""
	}

	d.mu.Lock()
	d.last[label] = out
	d.mu.Unlock()

	log.Info("llm style prompt", "label", label, "prompt", out)
	return out
}

// clean strips quotes and thinking tags some models emit despite the prompt.
func clean(s string) string {
	if i := strings.Index(s, "</think>"); i >= 0 {
		s = s[i+len("</think>"):]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGenerator calls an OpenAI-style completion endpoint and parses the
// strict-JSON payload the prompt demands (markdown + optional inline SVG +
// image prompt).
type HTTPGenerator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPGenerator(url, apiKey, model string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 300 * time.Second // generations routinely take minutes
	}
	return &HTTPGenerator{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, c Content) (Explanation, error) {
	body, _ := json.Marshal(map[string]any{
		"model": g.model,
		"input": buildPrompt(c),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Explanation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Explanation{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Explanation{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Explanation{}, fmt.Errorf("generator returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	text, err := extractText(raw)
	if err != nil {
		return Explanation{}, err
	}
	return parseExplanation(text, g.model)
}

// extractText unwraps the provider envelope: either a bare {"response": ...}
// field or an OpenAI-style output list whose items carry content[].text.
func extractText(raw []byte) (string, error) {
	var flat struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Response != "" {
		return flat.Response, nil
	}
	var envelope struct {
		Output []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		for _, out := range envelope.Output {
			for _, c := range out.Content {
				if c.Text != "" {
					return c.Text, nil
				}
			}
		}
	}
	return "", errors.New("no text in generator response")
}

// parseExplanation decodes the strict-JSON payload the prompt asks for.
// Models occasionally answer with loose prose instead; that is kept as the
// markdown body rather than discarded.
func parseExplanation(text, model string) (Explanation, error) {
	var payload struct {
		Markdown    string `json:"markdown"`
		DiagramSVG  string `json:"diagram_svg"`
		ImagePrompt string `json:"image_prompt"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err == nil && payload.Markdown != "" {
		return Explanation{
			Markdown:    payload.Markdown,
			DiagramSVG:  payload.DiagramSVG,
			ImagePrompt: payload.ImagePrompt,
			Model:       model,
			CreatedAt:   time.Now().UTC(),
		}, nil
	}
	if strings.TrimSpace(text) == "" {
		return Explanation{}, errors.New("empty generation")
	}
	return Explanation{Markdown: text, Model: model, CreatedAt: time.Now().UTC()}, nil
}

func buildPrompt(c Content) string {
	var b strings.Builder
	b.WriteString("Eres un profesor experto en náutica de recreo. Explicas con claridad, en español neutro y con precisión técnica.\n\n")
	b.WriteString("Te paso una pregunta de test con sus opciones y la correcta marcada.\n")
	b.WriteString("1) Resume la pregunta en una frase corta.\n")
	b.WriteString("2) Explica por qué la opción correcta lo es.\n")
	b.WriteString("3) Para cada opción incorrecta, explica por qué no lo es.\n")
	b.WriteString("4) Cierra con una conclusión.\n")
	b.WriteString("5) Si ayuda visualmente, genera un diagrama SVG inline (etiquetas en español).\n\n")
	b.WriteString("FORMATO DE SALIDA (JSON estricto): {\"markdown\": \"...\", \"diagram_svg\": \"<svg...>\" | null, \"image_prompt\": \"...\"}\n\n")
	b.WriteString("<<PREGUNTA>>\n")
	b.WriteString(c.Prompt)
	b.WriteString("\n\nOPCIONES:\n")
	for _, opt := range c.Options {
		mark := ""
		if opt.Letter == c.Correct {
			mark = " ✓ CORRECTA"
		}
		fmt.Fprintf(&b, "%s) %s%s\n", opt.Letter, opt.Text, mark)
	}
	fmt.Fprintf(&b, "\n<<CORRECTA>>\n%s\n", c.Correct)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

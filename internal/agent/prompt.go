package agent

import (
	"fmt"
	"strings"
	"text/template"
)

// PromptContext holds the host-platform values exposed to the system
// prompt template. Currently a single variable: the platform's
// configured location name.
type PromptContext struct {
	LocationName string
}

// RenderPrompt renders the system prompt template against the host
// context. The template is parsed per call so configuration changes and
// template errors surface on the turn that hits them, not at startup.
func RenderPrompt(raw string, pctx PromptContext) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, pctx); err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return sb.String(), nil
}

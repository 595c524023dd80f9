package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptTemplate is one embedded prompt. The body may refer to arguments as
// {{name}}; they are filled in from the prompt request.
type promptTemplate struct {
	Name        string
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
	Body        string           `yaml:"-"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// loadPrompts parses every embedded prompt, sorted by name.
func loadPrompts() ([]*promptTemplate, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var out []*promptTemplate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		p, err := parsePrompt(strings.TrimSuffix(entry.Name(), ".md"), content)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		out = append(out, p)
	}
	return out, nil
}

// parsePrompt splits YAML frontmatter from the body. Content without
// frontmatter is all body.
func parsePrompt(name string, content []byte) (*promptTemplate, error) {
	p := &promptTemplate{Name: name, Body: string(content)}
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return p, nil
	}
	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return p, nil
	}
	if err := yaml.Unmarshal(rest[:end], p); err != nil {
		return nil, err
	}
	p.Body = strings.TrimPrefix(string(rest[end+5:]), "\n")
	return p, nil
}

// registerPrompts adds every embedded prompt to the server.
func (s *Server) registerPrompts() {
	prompts, err := loadPrompts()
	if err != nil {
		return
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.prompt(), p.handle)
	}
}

func (p *promptTemplate) prompt() *mcp.Prompt {
	out := &mcp.Prompt{Name: p.Name, Description: p.Description}
	for _, a := range p.Arguments {
		out.Arguments = append(out.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return out
}

// render fills the argument placeholders of the body.
func (p *promptTemplate) render(args map[string]string) (string, error) {
	body := p.Body
	for _, a := range p.Arguments {
		v, ok := args[a.Name]
		if !ok || v == "" {
			if a.Required {
				return "", fmt.Errorf("prompt %s: argument %q is required", p.Name, a.Name)
			}
			v = "(not given)"
		}
		body = strings.ReplaceAll(body, "{{"+a.Name+"}}", v)
	}
	return body, nil
}

func (p *promptTemplate) handle(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var args map[string]string
	if req != nil && req.Params != nil {
		args = req.Params.Arguments
	}
	body, err := p.render(args)
	if err != nil {
		return nil, err
	}
	return &mcp.GetPromptResult{
		Description: p.Description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: body}},
		},
	}, nil
}

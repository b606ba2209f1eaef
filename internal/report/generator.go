package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mereb-hub/finance-hub/internal/config"
	"github.com/mereb-hub/finance-hub/internal/model"
)

// Generator produces the monthly report body. With an API key configured
// it asks the model for an executive summary; without one it falls back
// to a plain templated body so dispatch still works.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	recipient   string
	log         zerolog.Logger
}

func NewGenerator(cfg config.OpenAIConfig, recipient string, log zerolog.Logger) *Generator {
	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	return &Generator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		recipient:   recipient,
		log:         log,
	}
}

func (g *Generator) Generate(ctx context.Context, summary model.BudgetSummary) (string, error) {
	if g.client == nil {
		return g.fallbackBody(summary), nil
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a Senior Financial Auditor. Generate a professional, executive monthly financial report email.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: g.buildPrompt(summary),
			},
		},
	})
	if err != nil {
		g.log.Error().Err(err).Msg("report generation failed")
		return "", fmt.Errorf("report generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("report generation: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Generator) buildPrompt(summary model.BudgetSummary) string {
	names := make([]string, 0, len(summary.Departments))
	for _, dept := range summary.Departments {
		names = append(names, dept.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recipient: %s\n\n", g.recipient)
	b.WriteString("Data Summary:\n")
	fmt.Fprintf(&b, "- Total Approved Budget: %s\n", FormatCents(summary.TotalApproved))
	fmt.Fprintf(&b, "- Total Liquidated Funds: %s\n", FormatCents(summary.TotalSpent))
	fmt.Fprintf(&b, "- Utilization Rate: %.2f%%\n", summary.UtilizationPercent())
	fmt.Fprintf(&b, "- Active Portfolios: %d\n", summary.ActiveProjects)
	fmt.Fprintf(&b, "- Departments: %s\n\n", strings.Join(names, ", "))
	b.WriteString("Please include:\n")
	b.WriteString("1. A professional greeting.\n")
	b.WriteString("2. A high-level executive summary.\n")
	b.WriteString("3. Critical observations (e.g., if utilization is high).\n")
	b.WriteString("4. A concluding statement regarding institutional integrity.\n\n")
	b.WriteString("Format the output as a clean, professional email body.")
	return b.String()
}

func (g *Generator) fallbackBody(summary model.BudgetSummary) string {
	var b strings.Builder
	b.WriteString("Monthly Financial Report\n\n")
	fmt.Fprintf(&b, "Total approved budget: %s\n", FormatCents(summary.TotalApproved))
	fmt.Fprintf(&b, "Total liquidated funds: %s\n", FormatCents(summary.TotalSpent))
	fmt.Fprintf(&b, "Utilization rate: %.2f%%\n", summary.UtilizationPercent())
	fmt.Fprintf(&b, "Active portfolios: %d\n\n", summary.ActiveProjects)
	b.WriteString("Per-department breakdown:\n")
	for _, dept := range summary.Departments {
		fmt.Fprintf(&b, "- %s: approved %s, spent %s across %d projects\n",
			dept.Name, FormatCents(dept.ApprovedBudget), FormatCents(dept.SpentBudget), dept.ProjectCount)
	}
	return b.String()
}

// FormatCents renders a minor-unit amount as a dollar string.
func FormatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

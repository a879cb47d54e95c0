package agent

import (
	"context"
	"fmt"
	"log/slog"

	"webpilot-go/domain/action"
	"webpilot-go/domain/prompt"
	"webpilot-go/infrastructure/oracle"
)

const decisionSchemaName = "next_action"

func decisionSchema() *oracle.Schema {
	kinds := make([]string, 0, len(action.Kinds()))
	for _, k := range action.Kinds() {
		kinds = append(kinds, string(k))
	}
	return oracle.Object(
		oracle.Property{Name: "action", Schema: oracle.String("The next action to perform.", kinds...)},
		oracle.Property{Name: "target", Schema: oracle.String("The element the action applies to.")},
		oracle.Property{Name: "content", Schema: oracle.String("Text to type for type actions.")},
		oracle.Property{Name: "termination_message", Schema: oracle.String("Final answer when the action is none.")},
	)
}

// DecisionClient asks the oracle for the next action given a snapshot.
// It never retries.
type DecisionClient struct {
	oracle      oracle.Client
	instruction string
	schema      *oracle.Schema
	logger      *slog.Logger
}

// NewDecisionClient creates a decision client using the decide prompt.
func NewDecisionClient(client oracle.Client, prompts *prompt.Registry, logger *slog.Logger) (*DecisionClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := prompts.Require(prompt.NameDecide)
	if err != nil {
		return nil, err
	}
	instruction, err := p.Render(nil)
	if err != nil {
		return nil, err
	}
	return &DecisionClient{
		oracle:      client,
		instruction: instruction,
		schema:      decisionSchema(),
		logger:      logger,
	}, nil
}

// Decide returns the next action toward objective for the pictured page.
func (c *DecisionClient) Decide(ctx context.Context, objective string, snap *Snapshot) (action.Decision, error) {
	req := &oracle.Request{
		Instruction: c.instruction,
		Text:        "Objective: " + objective,
		Image:       &oracle.Image{Data: snap.Data, MIMEType: snap.MIMEType},
		Schema:      c.schema,
		SchemaName:  decisionSchemaName,
	}

	var d action.Decision
	if err := c.oracle.Submit(ctx, req, &d); err != nil {
		return action.Decision{}, fmt.Errorf("%w: %w", action.ErrDecision, err)
	}
	if err := d.Validate(); err != nil {
		return action.Decision{}, fmt.Errorf("%w: %w", action.ErrDecision, err)
	}

	c.logger.Debug("Decision received", "decision", d.String())
	return d, nil
}

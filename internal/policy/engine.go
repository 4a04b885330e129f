// Package policy gates item content before it reaches the store.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/copaslink/copas/internal/domain"
)

// Engine is the OPA policy engine deciding whether item content may be
// persisted.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.clipboard.decision"),
		rego.Module("clipboard.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the content policy for a single item.
// Returns one of: allow, reject_empty, reject_too_long.
func (e *Engine) Evaluate(ctx context.Context, content string) (string, error) {
	input := map[string]interface{}{"content": content}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The default policy always defines a decision; an empty result
		// means the loaded policy is broken.
		return "", fmt.Errorf("policy produced no decision")
	}

	decision, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy decision is not a string: %v", results[0].Expressions[0].Value)
	}
	return decision, nil
}

// Validate applies the content policy and maps rejections onto validation
// errors. It never touches the store.
func (e *Engine) Validate(ctx context.Context, content string) error {
	decision, err := e.Evaluate(ctx, content)
	if err != nil {
		return err
	}
	switch decision {
	case "allow":
		return nil
	case "reject_empty":
		return &domain.ValidationError{
			Code:    domain.ValidationEmptyContent,
			Message: "Please input text to copy",
		}
	case "reject_too_long":
		return &domain.ValidationError{
			Code:    domain.ValidationContentTooLong,
			Message: fmt.Sprintf("Text exceeds the maximum length of %d characters", domain.MaxContentLength),
		}
	default:
		return fmt.Errorf("unknown policy decision %q", decision)
	}
}

// DefaultPolicy is the default content policy.
const DefaultPolicy = `
package clipboard

max_content_length = 10000

default decision = "allow"

decision = "reject_empty" {
	trim_space(input.content) == ""
}

decision = "reject_too_long" {
	trim_space(input.content) != ""
	count(input.content) > max_content_length
}
`

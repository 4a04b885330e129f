package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copaslink/copas/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestValidateAcceptsContent(t *testing.T) {
	engine := newTestEngine(t)
	assert.NoError(t, engine.Validate(context.Background(), "hello"))
}

func TestValidateRejectsEmpty(t *testing.T) {
	engine := newTestEngine(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		err := engine.Validate(context.Background(), content)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate(%q) = %v, want ValidationError", content, err)
		}
		assert.Equal(t, domain.ValidationEmptyContent, verr.Code)
	}
}

func TestValidateRejectsTooLong(t *testing.T) {
	engine := newTestEngine(t)

	err := engine.Validate(context.Background(), strings.Repeat("x", 10001))
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assert.Equal(t, domain.ValidationContentTooLong, verr.Code)
}

func TestValidateAcceptsMaxLength(t *testing.T) {
	engine := newTestEngine(t)
	assert.NoError(t, engine.Validate(context.Background(), strings.Repeat("x", 10000)))
}

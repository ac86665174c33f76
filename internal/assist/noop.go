package assist

import (
	"context"

	"github.com/artwin/feedback-hub/internal/feedback"
)

// Noop serves every capability with its fallback value. Used when no
// API key is configured, and in tests.
type Noop struct{}

var _ Assistant = Noop{}

func (Noop) ClassifyDepartment(ctx context.Context, message string) feedback.Department {
	return feedback.DepartmentOther
}

func (Noop) Analyze(ctx context.Context, message string, urgency feedback.Urgency) feedback.Analysis {
	return FallbackAnalysis()
}

func (Noop) DraftReply(ctx context.Context, item feedback.Item) string {
	return FallbackDraft
}

func (Noop) SummarizeReport(ctx context.Context, items []feedback.Item, dept feedback.Department) string {
	if len(items) == 0 {
		return EmptyReport
	}
	return FallbackReport
}

package advisory

import "context"

// MockClient returns a fixed advisory for every clause. It is the
// default in development and test environments where no API key is
// configured.
type MockClient struct{}

// NewMockClient creates a mock clause analyzer.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AnalyzeClause returns the canned advisory with the clause echoed
// back. It never fails.
func (c *MockClient) AnalyzeClause(_ context.Context, clauseText string) (Advisory, error) {
	const confidence = 0.87
	return Advisory{
		Summary:        "This clause requires annual third-party security audits and data residency within the EU.",
		RiskLevel:      RiskMedium,
		Categories:     []Category{CategoryAudit, CategoryDataResidency},
		Confidence:     confidence,
		ReviewRequired: confidence < ReviewThreshold,
		RawClause:      clauseText,
		ModelUsed:      "mock",
	}, nil
}

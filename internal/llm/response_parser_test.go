package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisResponseClean(t *testing.T) {
	got, err := ParseAnalysisResponse(`{"insights":["a"],"alerts":["b"],"recommendations":[]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Insights)
	assert.Equal(t, []string{"b"}, got.Alerts)
	assert.NotNil(t, got.Recommendations)
	assert.Empty(t, got.Recommendations)
}

func TestParseAnalysisResponseWithMarkdownFences(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n{\"insights\":[\"trend up\"],\"alerts\":[],\"recommendations\":[\"act\"]}\n```\nLet me know if you need more."
	got, err := ParseAnalysisResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"trend up"}, got.Insights)
	assert.Equal(t, []string{"act"}, got.Recommendations)
}

func TestParseAnalysisResponseMissingKeys(t *testing.T) {
	got, err := ParseAnalysisResponse(`{}`)
	require.NoError(t, err)
	assert.NotNil(t, got.Insights)
	assert.NotNil(t, got.Alerts)
	assert.NotNil(t, got.Recommendations)
}

func TestParseAnalysisResponseMalformed(t *testing.T) {
	_, err := ParseAnalysisResponse("I could not produce JSON, sorry")
	assert.Error(t, err)
}

func TestExtractJSONBraceMatching(t *testing.T) {
	// Braces inside string values must not confuse the matcher.
	raw := `preamble {"insights":["uses { and } in text"],"alerts":[],"recommendations":[]} trailing`
	got, err := ParseAnalysisResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"uses { and } in text"}, got.Insights)
}

func TestExtractJSONEscapedQuotes(t *testing.T) {
	raw := `{"insights":["she said \"hi\""],"alerts":[],"recommendations":[]}`
	got, err := ParseAnalysisResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{`she said "hi"`}, got.Insights)
}

func TestEmptyAnalysisResponse(t *testing.T) {
	got := EmptyAnalysisResponse()
	assert.NotNil(t, got.Insights)
	assert.NotNil(t, got.Alerts)
	assert.NotNil(t, got.Recommendations)
	assert.Empty(t, got.Insights)
}

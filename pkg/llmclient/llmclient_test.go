package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLM_NoCredentialReturnsStub(t *testing.T) {
	t.Setenv("DIAGRAMGEN_TEST_MISSING_KEY", "")
	llm, ok := NewLLM(ProviderConfig{Type: "openai", APIKeyEnv: "DIAGRAMGEN_TEST_MISSING_KEY"})
	assert.False(t, ok, "expected ok=false when credential is missing")
	assert.Equal(t, "stub", llm.Name())
}

func TestNewVLM_NoCredentialReturnsStub(t *testing.T) {
	t.Setenv("DIAGRAMGEN_TEST_MISSING_VLM_KEY", "")
	vlm, ok := NewVLM(ProviderConfig{Type: "openai", APIKeyEnv: "DIAGRAMGEN_TEST_MISSING_VLM_KEY"})
	assert.False(t, ok)
	assert.Equal(t, "stub", vlm.Name())
}

func TestNewLLM_UnknownTypeReturnsStub(t *testing.T) {
	llm, ok := NewLLM(ProviderConfig{Type: "anthropic"})
	assert.False(t, ok)
	assert.Equal(t, "stub", llm.Name())
}

func TestStubLLM_Chat(t *testing.T) {
	var s StubLLM
	out, err := s.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 0.0, true)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestStubVLM_Validate(t *testing.T) {
	var s StubVLM
	res, err := s.Validate(context.Background(), "<svg/>", "draw a circuit")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsValid)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestParseVLMResult(t *testing.T) {
	res, err := parseVLMResult(`{"is_valid": false, "confidence": 0.2, "issues": ["overlap"]}`)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 0.2, res.Confidence)
	assert.Len(t, res.Issues, 1)
}

func TestParseVLMResult_MalformedJSON(t *testing.T) {
	_, err := parseVLMResult("not json")
	require.Error(t, err)
}

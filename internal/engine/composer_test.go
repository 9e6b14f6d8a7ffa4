package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-app/vigil/internal/llm"
	"github.com/vigil-app/vigil/pkg/types"
)

// fakeCompleter returns a canned reply or error.
type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) GetModel() string { return "fake" }

func TestProactiveInsightFallbackOnFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.ProactiveInsight(context.Background(), "u1", types.DefaultCompanionSettings())
	assert.Equal(t, FallbackInsight, got)
	assert.Equal(t, 1, completer.calls)
}

func TestProactiveInsightDisabled(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be called"}
	composer := NewComposer(completer, nil, nil, nil, nil)

	settings := types.DefaultCompanionSettings()
	settings.ProactiveEnabled = false

	got := composer.ProactiveInsight(context.Background(), "u1", settings)
	assert.Equal(t, FallbackInsight, got)
	assert.Zero(t, completer.calls, "completion must not run when proactivity is off")
}

func TestProactiveInsightSuccess(t *testing.T) {
	completer := &fakeCompleter{reply: "  Reach out to Alice about the Q3 plan.  "}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.ProactiveInsight(context.Background(), "u1", types.DefaultCompanionSettings())
	assert.Equal(t, "Reach out to Alice about the Q3 plan.", got)
}

func TestAnalyzeFallbackOnUnparseableOutput(t *testing.T) {
	completer := &fakeCompleter{reply: "sorry, I can't do JSON today"}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.Analyze(context.Background(), "u1", types.DefaultCompanionSettings())
	require.NotNil(t, got)
	assert.Empty(t, got.Insights)
	assert.Empty(t, got.Alerts)
	assert.Empty(t, got.Recommendations)
}

func TestAnalyzeFallbackOnCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("timeout")}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.Analyze(context.Background(), "u1", types.DefaultCompanionSettings())
	require.NotNil(t, got)
	assert.Empty(t, got.Insights)
}

func TestAnalyzeParsesStructuredOutput(t *testing.T) {
	completer := &fakeCompleter{reply: "```json\n{\"insights\":[\"a\"],\"alerts\":[],\"recommendations\":[\"b\",\"c\"]}\n```"}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.Analyze(context.Background(), "u1", types.DefaultCompanionSettings())
	require.NotNil(t, got)
	assert.Equal(t, []string{"a"}, got.Insights)
	assert.Empty(t, got.Alerts)
	assert.Equal(t, []string{"b", "c"}, got.Recommendations)
}

func TestDailyBriefingFallback(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("circuit open")}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.DailyBriefing(context.Background(), "u1", types.DefaultCompanionSettings(), BriefingInput{})
	assert.Equal(t, FallbackBriefing, got)
}

func TestConversationInsightNilOnFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("boom")}
	composer := NewComposer(completer, nil, nil, nil, nil)

	turns := []types.ConversationTurn{{Role: types.RoleUser, Content: "hello"}}
	assert.Nil(t, composer.ConversationInsight(context.Background(), "u1", turns))
}

func TestConversationInsightEmptyTranscript(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be called"}
	composer := NewComposer(completer, nil, nil, nil, nil)

	assert.Nil(t, composer.ConversationInsight(context.Background(), "u1", nil))
	assert.Zero(t, completer.calls)
}

func TestAnalyzeVoiceTranscriptBlankInput(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be called"}
	composer := NewComposer(completer, nil, nil, nil, nil)

	assert.Nil(t, composer.AnalyzeVoiceTranscript(context.Background(), "u1", "   "))
	assert.Zero(t, completer.calls)
}

func TestChatFallbackOnFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("unavailable")}
	composer := NewComposer(completer, nil, nil, nil, nil)

	got := composer.Chat(context.Background(), "u1", "hi", types.DefaultCompanionSettings())
	assert.Equal(t, FallbackChat, got)
}

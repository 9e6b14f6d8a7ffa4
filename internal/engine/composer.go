package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vigil-app/vigil/internal/llm"
	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// Fallback strings returned when the completion capability fails. Callers of
// the composer always receive usable text, never an error from the
// completion path.
const (
	FallbackInsight  = "No insight available right now."
	FallbackBriefing = "No briefing available right now."
	FallbackChat     = "I can't respond right now. Please try again in a moment."
)

// Context assembly bounds. Prompts stay small regardless of how much state a
// user has accumulated.
const (
	contextMaxMetrics    = 5
	contextMaxInsights   = 10
	contextMaxFragments  = 3
	contextFragmentChars = 300
	chatHistoryTurns     = 10
)

// Composer assembles bounded monitoring context into prompts and turns
// completions into user-facing text. Every completion-backed path degrades
// gracefully: failures and unparseable output produce a defined fallback,
// never a propagated error.
type Composer struct {
	completer     llm.ChatCompleter
	memory        *SemanticMemory // optional; nil disables fragment recall
	metrics       storage.MetricStore
	insights      storage.InsightStore
	conversations storage.ConversationStore
	timeout       time.Duration
}

// NewComposer creates an insight composer. memory and conversations may be
// nil when the host does not wire semantic memory or chat history.
func NewComposer(completer llm.ChatCompleter, memory *SemanticMemory, metrics storage.MetricStore, insights storage.InsightStore, conversations storage.ConversationStore) *Composer {
	return &Composer{
		completer:     completer,
		memory:        memory,
		metrics:       metrics,
		insights:      insights,
		conversations: conversations,
		timeout:       45 * time.Second,
	}
}

// SetTimeout overrides the per-completion timeout.
func (c *Composer) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// complete runs one completion under the composer's timeout.
func (c *Composer) complete(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.completer.Complete(ctx, messages)
}

// gatherContext assembles the bounded monitoring context string shared by
// the proactive-insight and analysis paths. Read failures degrade to a
// smaller context rather than aborting.
func (c *Composer) gatherContext(ctx context.Context, userID, focus string) string {
	var b strings.Builder

	if c.metrics != nil {
		names, err := c.metrics.MetricNames(ctx, userID)
		if err != nil {
			log.Printf("composer: metric names unavailable for user %s: %v", userID, err)
		}
		if len(names) > contextMaxMetrics {
			names = names[:contextMaxMetrics]
		}
		for _, name := range names {
			points, err := c.metrics.RecentPoints(ctx, userID, name, 5)
			if err != nil || len(points) == 0 {
				continue
			}
			values := types.NumericValues(points)
			if len(values) == 0 {
				continue
			}
			fmt.Fprintf(&b, "Metric %s: latest %.2f (%d recent points)\n", name, values[0], len(points))
		}
	}

	if c.insights != nil {
		unresolved, err := c.insights.ListUnresolved(ctx, userID)
		if err != nil {
			log.Printf("composer: unresolved insights unavailable for user %s: %v", userID, err)
		}
		if len(unresolved) > contextMaxInsights {
			unresolved = unresolved[:contextMaxInsights]
		}
		for _, ins := range unresolved {
			fmt.Fprintf(&b, "Open insight [%s/%s]: %s\n", ins.Kind, ins.Priority, ins.Title)
		}
	}

	if c.memory != nil && focus != "" {
		fragments, err := c.memory.Recall(ctx, userID, focus, contextMaxFragments)
		if err != nil {
			log.Printf("composer: memory recall failed for user %s: %v", userID, err)
		}
		for _, sf := range fragments {
			text := sf.Fragment.Text
			if len(text) > contextFragmentChars {
				text = text[:contextFragmentChars]
			}
			fmt.Fprintf(&b, "Remembered context: %s\n", text)
		}
	}

	if b.Len() == 0 {
		return "No monitoring data available."
	}
	return b.String()
}

// ProactiveInsight composes one unprompted observation for the user. Returns
// FallbackInsight when settings disable proactivity or the completion fails.
func (c *Composer) ProactiveInsight(ctx context.Context, userID string, settings types.CompanionSettings) string {
	settings.Normalize()
	if !settings.ProactiveEnabled {
		return FallbackInsight
	}

	monitoring := c.gatherContext(ctx, userID, "current priorities and commitments")
	messages := []llm.Message{
		llm.System(llm.SystemPrompt(settings)),
		llm.User(llm.ProactiveInsightPrompt(monitoring)),
	}

	text, err := c.complete(ctx, messages)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("composer: proactive insight completion failed for user %s: %v", userID, err)
		return FallbackInsight
	}
	return strings.TrimSpace(text)
}

// BriefingInput carries detector output into the daily briefing.
type BriefingInput struct {
	Anomalies []AnomalyFinding
	Forecasts []Forecast
	Cold      []ColdConnectionFinding
	Spikes    []SpikeFinding
}

// summary renders the findings as prompt text.
func (in *BriefingInput) summary() string {
	var b strings.Builder
	for _, a := range in.Anomalies {
		fmt.Fprintf(&b, "Anomaly (%s): %s moved to %.2f against a recent mean of %.2f\n", a.Severity, a.Metric, a.Latest, a.Mean)
	}
	for _, f := range in.Forecasts {
		if len(f.Values) > 0 {
			fmt.Fprintf(&b, "Forecast: %s trending to %.2f (slope %.2f per period)\n", f.Metric, f.Values[len(f.Values)-1], f.Slope)
		}
	}
	for _, cf := range in.Cold {
		fmt.Fprintf(&b, "Overdue: %s\n", cf.Description())
	}
	for _, s := range in.Spikes {
		fmt.Fprintf(&b, "Spike: %d outbound messages to %s on %s\n", s.Count, s.Contact, s.Day)
	}
	if b.Len() == 0 {
		return "Nothing unusual detected."
	}
	return b.String()
}

// DailyBriefing composes a morning briefing from detector findings. Always
// returns usable text; completion failure yields FallbackBriefing.
func (c *Composer) DailyBriefing(ctx context.Context, userID string, settings types.CompanionSettings, input BriefingInput) string {
	settings.Normalize()
	messages := []llm.Message{
		llm.System(llm.SystemPrompt(settings)),
		llm.User(llm.DailyBriefingPrompt(input.summary())),
	}

	text, err := c.complete(ctx, messages)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("composer: briefing completion failed for user %s: %v", userID, err)
		return FallbackBriefing
	}
	return strings.TrimSpace(text)
}

// Analyze requests a structured insights/alerts/recommendations analysis.
// This path never fails: completion errors and unparseable output both fall
// back to an empty-but-valid response, with the raw output logged.
func (c *Composer) Analyze(ctx context.Context, userID string, settings types.CompanionSettings) *llm.AnalysisResponse {
	settings.Normalize()
	monitoring := c.gatherContext(ctx, userID, "trends and risks")
	messages := []llm.Message{
		llm.System(llm.SystemPrompt(settings)),
		llm.User(llm.AnalysisPrompt(monitoring)),
	}

	raw, err := c.complete(ctx, messages)
	if err != nil {
		log.Printf("composer: analysis completion failed for user %s: %v", userID, err)
		return llm.EmptyAnalysisResponse()
	}

	parsed, err := llm.ParseAnalysisResponse(raw)
	if err != nil {
		log.Printf("composer: analysis output unparseable for user %s: %v (raw: %s)", userID, err, raw)
		return llm.EmptyAnalysisResponse()
	}
	return parsed
}

// ConversationInsight extracts one takeaway from a conversation transcript
// and persists it as a conversation insight. Returns nil (not an error) when
// the completion fails or the transcript is empty.
func (c *Composer) ConversationInsight(ctx context.Context, userID string, turns []types.ConversationTurn) *types.Insight {
	if len(turns) == 0 {
		return nil
	}

	var transcript strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&transcript, "%s: %s\n", t.Role, t.Content)
	}

	text, err := c.complete(ctx, []llm.Message{
		llm.User(llm.ConversationInsightPrompt(transcript.String())),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("composer: conversation insight completion failed for user %s: %v", userID, err)
		return nil
	}

	insight := &types.Insight{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        types.InsightConversation,
		Title:       "Conversation takeaway",
		Description: strings.TrimSpace(text),
		Priority:    types.PriorityLow,
		Confidence:  60,
		CreatedAt:   time.Now().UTC(),
	}
	if c.insights != nil {
		if err := c.insights.CreateInsight(ctx, insight); err != nil {
			log.Printf("composer: failed to persist conversation insight for user %s: %v", userID, err)
		}
	}
	return insight
}

// AnalyzeVoiceTranscript analyzes a voice note transcript, persists the
// analysis as a voice_analysis insight, and records the transcript into
// semantic memory. Completion failure returns nil without error; persistence
// failures are logged and do not abort the analysis.
func (c *Composer) AnalyzeVoiceTranscript(ctx context.Context, userID, transcript string) *types.Insight {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	text, err := c.complete(ctx, []llm.Message{
		llm.User(llm.VoiceAnalysisPrompt(transcript)),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("composer: voice analysis completion failed for user %s: %v", userID, err)
		return nil
	}

	insight := &types.Insight{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        types.InsightVoiceAnalysis,
		Title:       "Voice note analysis",
		Description: strings.TrimSpace(text),
		Priority:    types.PriorityMedium,
		Confidence:  70,
		CreatedAt:   time.Now().UTC(),
	}
	if c.insights != nil {
		if err := c.insights.CreateInsight(ctx, insight); err != nil {
			log.Printf("composer: failed to persist voice insight for user %s: %v", userID, err)
		}
	}
	if c.memory != nil {
		if _, err := c.memory.Remember(ctx, userID, transcript, "", map[string]interface{}{"source": "voice"}); err != nil {
			log.Printf("composer: failed to remember voice transcript for user %s: %v", userID, err)
		}
	}
	return insight
}

// Chat handles one companion conversation turn: persists the user message,
// recalls relevant memory, completes with a personality-aware system prompt,
// persists the reply, and records the exchange into semantic memory.
// Completion failure yields FallbackChat; persistence and memory failures
// are logged and do not block the reply.
func (c *Composer) Chat(ctx context.Context, userID, message string, settings types.CompanionSettings) string {
	settings.Normalize()
	now := time.Now().UTC()

	if c.conversations != nil {
		turn := &types.ConversationTurn{
			ID:        uuid.NewString(),
			UserID:    userID,
			Role:      types.RoleUser,
			Content:   message,
			CreatedAt: now,
		}
		if err := c.conversations.AppendTurn(ctx, turn); err != nil {
			log.Printf("composer: failed to persist user turn for user %s: %v", userID, err)
		}
	}

	messages := []llm.Message{llm.System(llm.SystemPrompt(settings))}

	if c.memory != nil {
		fragments, err := c.memory.Recall(ctx, userID, message, contextMaxFragments)
		if err != nil {
			log.Printf("composer: memory recall failed for user %s: %v", userID, err)
		}
		if len(fragments) > 0 {
			var b strings.Builder
			b.WriteString("Relevant context from past conversations:\n")
			for _, sf := range fragments {
				text := sf.Fragment.Text
				if len(text) > contextFragmentChars {
					text = text[:contextFragmentChars]
				}
				fmt.Fprintf(&b, "- %s\n", text)
			}
			messages = append(messages, llm.System(b.String()))
		}
	}

	replayed := 0
	if c.conversations != nil {
		history, err := c.conversations.RecentTurns(ctx, userID, chatHistoryTurns)
		if err != nil {
			log.Printf("composer: conversation history unavailable for user %s: %v", userID, err)
		}
		// RecentTurns is newest first; replay oldest to newest.
		for i := len(history) - 1; i >= 0; i-- {
			t := history[i]
			if t.Role != types.RoleUser && t.Role != types.RoleAssistant {
				continue
			}
			messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
			replayed++
		}
	}
	if replayed == 0 {
		// The current message normally arrives through history replay.
		messages = append(messages, llm.User(message))
	}

	reply, err := c.complete(ctx, messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		log.Printf("composer: chat completion failed for user %s: %v", userID, err)
		return FallbackChat
	}
	reply = strings.TrimSpace(reply)

	if c.conversations != nil {
		turn := &types.ConversationTurn{
			ID:        uuid.NewString(),
			UserID:    userID,
			Role:      types.RoleAssistant,
			Content:   reply,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.conversations.AppendTurn(ctx, turn); err != nil {
			log.Printf("composer: failed to persist assistant turn for user %s: %v", userID, err)
		}
	}

	if c.memory != nil {
		exchange := fmt.Sprintf("User: %s\nAssistant: %s", message, reply)
		if _, err := c.memory.Remember(ctx, userID, exchange, "", map[string]interface{}{"source": "chat"}); err != nil {
			log.Printf("composer: failed to remember exchange for user %s: %v", userID, err)
		}
	}

	return reply
}

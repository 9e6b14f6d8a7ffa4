// Package llm provides chat completion and embedding clients for insight
// composition and semantic memory. It includes strict JSON-only prompt
// templates and response parsers that work with Ollama, OpenAI, and Anthropic
// models.
package llm

import (
	"fmt"

	"github.com/vigil-app/vigil/pkg/types"
)

// personalityDirectives maps each personality style to the tone instruction
// injected into system prompts.
var personalityDirectives = map[types.PersonalityStyle]string{
	types.StyleBalanced:    "Be direct and even-handed. Surface both progress and problems.",
	types.StyleSupportive:  "Be encouraging. Lead with what is going well before raising concerns.",
	types.StyleChallenging: "Be demanding. Push hard on missed commitments and weak follow-through.",
}

// SystemPrompt builds the personality-aware system prompt shared by chat and
// insight composition.
func SystemPrompt(settings types.CompanionSettings) string {
	settings.Normalize()
	directive := personalityDirectives[settings.PersonalityStyle]
	return fmt.Sprintf(`You are a proactive executive companion. You watch the user's metrics, relationships, and communication patterns, and you speak up when something needs attention.

Tone: %s
Respond in language code %q.
Keep responses under 150 words unless asked for detail.`, directive, settings.PreferredLanguage)
}

// ProactiveInsightPrompt asks for a single short observation given assembled
// monitoring context.
func ProactiveInsightPrompt(context string) string {
	return fmt.Sprintf(`Review the monitoring context below and produce ONE proactive observation the user should act on today. Name the specific metric, person, or pattern. End with a single concrete suggested action.

MONITORING CONTEXT:
%s`, context)
}

// DailyBriefingPrompt asks for a short morning briefing over detector output.
func DailyBriefingPrompt(summary string) string {
	return fmt.Sprintf(`Compose a morning briefing from the findings below. Three short sections: what changed, who needs attention, what to do first. Skip any section with nothing to report.

FINDINGS:
%s`, summary)
}

// AnalysisPrompt generates a strict JSON-only prompt for structured dashboard
// analysis.
func AnalysisPrompt(context string) string {
	return fmt.Sprintf(`TASK: Analyze the monitoring context and produce structured findings.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
{
  "insights": ["observation about a trend or pattern"],
  "alerts": ["something that needs attention now"],
  "recommendations": ["specific action to take"]
}

VALIDATION (STRICT):
1. Start with { - End with }
2. All three keys present, each an array of strings
3. Empty arrays are allowed
4. No extra fields
5. No trailing commas

MONITORING CONTEXT:
%s

RESPOND WITH ONLY THIS JSON STRUCTURE (nothing else):
{"insights":["..."],"alerts":["..."],"recommendations":["..."]}`, context)
}

// ConversationInsightPrompt asks for one takeaway from a conversation
// transcript.
func ConversationInsightPrompt(transcript string) string {
	return fmt.Sprintf(`Read the conversation below and state the single most useful insight about the user's current priorities or state of mind. One or two sentences, no preamble.

CONVERSATION:
%s`, transcript)
}

// VoiceAnalysisPrompt asks for an assessment of a voice note transcript.
func VoiceAnalysisPrompt(transcript string) string {
	return fmt.Sprintf(`The user recorded a voice note, transcribed below. Summarize what they committed to or decided, flag anything time-sensitive, and note the overall tone. Keep it under 100 words.

TRANSCRIPT:
%s`, transcript)
}

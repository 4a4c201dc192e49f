package dialogue

import (
	"strings"
)

// ExitSentinel terminates and clears a session from any state.
const ExitSentinel = "exit"

// ReadinessMarker is the textual signal that clarification should stop. It is
// a substring match on model output, not a structured field; the follow-up
// prompt instructs the model to emit the phrase verbatim.
const ReadinessMarker = "enough information"

// CompletionMarker is appended to the terminal assistant message so callers
// can detect analysis completion machine-readably.
const CompletionMarker = "[SYSTEM: ANALYSIS COMPLETE]"

// overrunWarning precedes the forced report when the step cap is exhausted.
const overrunWarning = "[SYSTEM] Generating final analysis report..."

// resetAcknowledgement opens a fresh topic after an explicit topic change.
const resetAcknowledgement = "I understand you'd like to discuss a new medical topic. Let's start fresh with this new concern."

// topicChangePhrases reset a completed session to a fresh topic.
var topicChangePhrases = []string{
	"new symptom",
	"different issue",
	"another problem",
	"different question",
}

// IsExit reports whether the input is the session exit sentinel.
func IsExit(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), ExitSentinel)
}

// IsReadySignal reports whether the model's reply signals that it has gathered
// enough symptom detail.
func IsReadySignal(text string) bool {
	return strings.Contains(strings.ToLower(text), ReadinessMarker)
}

// IsTopicChange reports whether a post-completion message opens a new topic.
func IsTopicChange(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range topicChangePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

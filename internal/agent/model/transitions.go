package model

import (
	"fmt"
)

// Event is a stimulus fed to the stage transition table.
type Event string

const (
	// EventClarify : the conversation handler asked another clarifying question.
	EventClarify Event = "clarify"
	// EventReady : readiness was signalled (textual marker or question budget).
	EventReady Event = "ready"
	// EventFinalized : the final report was emitted.
	EventFinalized Event = "finalized"
	// EventReopen : a post-completion message continues the same topic.
	EventReopen Event = "reopen"
	// EventTopicChange : a post-completion message opens a new topic.
	EventTopicChange Event = "topic_change"
)

// Next is the stage transition table. It is deliberately a pure function so
// the reachable transitions can be tested without any model calls. Stages move
// conversation -> research -> complete, with the only backward edges being the
// post-completion reopen and the explicit topic-change reset.
func Next(s Stage, e Event) (Stage, error) {
	switch s {
	case StageConversation:
		switch e {
		case EventClarify:
			return StageConversation, nil
		case EventReady:
			return StageResearch, nil
		case EventFinalized:
			// Forced finalization when the step cap is exhausted mid-conversation.
			return StageComplete, nil
		}
	case StageResearch:
		switch e {
		case EventFinalized:
			return StageComplete, nil
		}
	case StageComplete:
		switch e {
		case EventReopen, EventTopicChange:
			return StageConversation, nil
		case EventFinalized:
			// Re-emitting the terminal report keeps the session complete.
			return StageComplete, nil
		}
	}
	return s, fmt.Errorf("no transition from stage %q on event %q", s, e)
}

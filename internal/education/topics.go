package education

import (
	"strings"
)

// Topic is a coarse medical subject bucket used for analytics and tips.
type Topic string

const (
	TopicCardiology  Topic = "cardiology"
	TopicRespiratory Topic = "respiratory"
	TopicNeurology   Topic = "neurology"
	TopicImmunology  Topic = "immunology"
	TopicGeneral     Topic = "general"
)

func (t Topic) String() string {
	return string(t)
}

// topicKeywords maps free-text markers to topics. First match wins, so the
// order below is the match priority.
var topicKeywords = []struct {
	topic Topic
	words []string
}{
	{TopicCardiology, []string{"cardiac", "heart", "chest", "circulation"}},
	{TopicRespiratory, []string{"respiratory", "lung", "breathing", "breath"}},
	{TopicNeurology, []string{"nervous", "brain", "neuron", "headache", "dizz"}},
	{TopicImmunology, []string{"immune", "antibody", "infection", "fever"}},
}

// DetectTopic classifies free text into a topic by keyword match, falling
// back to general.
func DetectTopic(text string) Topic {
	lower := strings.ToLower(text)
	for _, tk := range topicKeywords {
		for _, w := range tk.words {
			if strings.Contains(lower, w) {
				return tk.topic
			}
		}
	}
	return TopicGeneral
}

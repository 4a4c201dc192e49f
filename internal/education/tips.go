package education

import (
	"math/rand"
)

var tipsByTopic = map[Topic][]string{
	TopicCardiology: {
		"Regular aerobic exercise strengthens the heart muscle and improves circulation.",
		"A diet low in sodium and saturated fat helps maintain healthy blood pressure.",
		"Know the warning signs of a heart attack: chest pressure, arm pain, shortness of breath.",
		"Managing stress through relaxation techniques benefits cardiovascular health.",
	},
	TopicRespiratory: {
		"Practice deep breathing exercises to improve lung capacity.",
		"Avoid smoking and secondhand smoke to protect your airways.",
		"Good indoor air quality reduces respiratory irritation; ventilate regularly.",
		"Seek care promptly if shortness of breath occurs at rest.",
	},
	TopicNeurology: {
		"Consistent sleep schedules support brain health and reduce headache frequency.",
		"Staying hydrated helps prevent tension headaches.",
		"Sudden severe headache, confusion, or weakness on one side needs urgent evaluation.",
		"Regular mental and physical activity supports long-term cognitive health.",
	},
	TopicImmunology: {
		"Keep vaccinations up to date to maintain immune protection.",
		"Adequate sleep and balanced nutrition strengthen immune response.",
		"Wash hands thoroughly to reduce the spread of infection.",
		"A persistent fever above 39C warrants medical attention.",
	},
	TopicGeneral: {
		"Stay hydrated: aim for around two liters of water a day.",
		"Aim for at least 150 minutes of moderate exercise per week.",
		"Schedule routine checkups even when you feel healthy.",
		"A balanced diet rich in vegetables and whole grains supports overall health.",
	},
}

// TipsForTopic returns the educational tips for a topic. Unknown topics fall
// back to the general set.
func TipsForTopic(t Topic) []string {
	if tips, ok := tipsByTopic[t]; ok {
		return tips
	}
	return tipsByTopic[TopicGeneral]
}

// RandomTip picks one tip for the topic.
func RandomTip(t Topic) string {
	tips := TipsForTopic(t)
	return tips[rand.Intn(len(tips))]
}

// Topics lists every topic that has a tip set.
func Topics() []Topic {
	return []Topic{TopicCardiology, TopicRespiratory, TopicNeurology, TopicImmunology, TopicGeneral}
}

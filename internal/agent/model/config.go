package model

// ================ Config ================
type DialogueConfig struct {
	// QuestionBudget caps clarifying questions before research is forced.
	QuestionBudget int `envconfig:"DIALOGUE_QUESTION_BUDGET" default:"4"`
	// MaxSteps caps internally chained stage advances per inbound message.
	MaxSteps int `envconfig:"DIALOGUE_MAX_STEPS" default:"8"`
	// SessionTTL discards sessions with no traffic for this long.
	SessionTTL string `envconfig:"DIALOGUE_SESSION_TTL" default:"30m"`
	// TranscriptTTL is handed to the conversation repository.
	TranscriptTTL string `envconfig:"DIALOGUE_TRANSCRIPT_TTL" default:"24h"`
}

type CompletionModelConfig struct {
	Model       string  `envconfig:"COMPLETION_MODEL" default:"gemini-1.5-pro"`
	MaxTokens   int     `envconfig:"COMPLETION_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"COMPLETION_TEMPERATURE" default:"0.3"`
	// TimeoutSeconds bounds each completion round-trip.
	TimeoutSeconds int `envconfig:"COMPLETION_TIMEOUT_SECONDS" default:"60"`
	// MaxRetries bounds re-attempts after a failed call. Kept deliberately
	// small: one retry with a short backoff.
	MaxRetries int `envconfig:"COMPLETION_MAX_RETRIES" default:"1"`
}

type ResearchModelConfig struct {
	Model          string  `envconfig:"RESEARCH_MODEL" default:"sonar-pro"`
	MaxTokens      int     `envconfig:"RESEARCH_MAX_TOKENS" default:"2048"`
	Temperature    float32 `envconfig:"RESEARCH_TEMPERATURE" default:"0.2"`
	TopP           float32 `envconfig:"RESEARCH_TOP_P" default:"0.8"`
	TimeoutSeconds int     `envconfig:"RESEARCH_TIMEOUT_SECONDS" default:"60"`
}

type QuizConfig struct {
	MinQuestions int `envconfig:"QUIZ_MIN_QUESTIONS" default:"1"`
	MaxQuestions int `envconfig:"QUIZ_MAX_QUESTIONS" default:"20"`
}

package education

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/prompts"
	errx "github.com/medlama/server/internal/core/error"
)

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// QuizService generates multiple-choice quizzes through the completion model.
type QuizService struct {
	llm model.CompletionClient
	cfg model.QuizConfig
}

func NewQuizService(llm model.CompletionClient, cfg model.QuizConfig) *QuizService {
	return &QuizService{llm: llm, cfg: cfg}
}

// Generate validates the request and asks the completion model for quiz text.
// Difficulty defaults to medium when empty.
func (s *QuizService) Generate(ctx context.Context, topic string, numQuestions int, difficulty string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errx.New(nil, http.StatusBadRequest, "quiz topic is required")
	}
	if numQuestions < s.cfg.MinQuestions || numQuestions > s.cfg.MaxQuestions {
		return "", errx.New(nil, http.StatusBadRequest, fmt.Sprintf("number of questions must be between %d and %d", s.cfg.MinQuestions, s.cfg.MaxQuestions))
	}
	if difficulty == "" {
		difficulty = "medium"
	}
	difficulty = strings.ToLower(difficulty)
	if !validDifficulties[difficulty] {
		return "", errx.New(nil, http.StatusBadRequest, "difficulty must be one of easy, medium, hard")
	}

	p, err := prompts.RenderQuiz(ctx, topic, numQuestions, difficulty)
	if err != nil {
		return "", errx.WrapCompletion(err)
	}
	out, err := s.llm.Complete(ctx, p)
	if err != nil {
		return "", err
	}
	return out, nil
}

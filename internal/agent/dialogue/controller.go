package dialogue

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/prompts"
	logx "github.com/medlama/server/pkg/logger"
)

const (
	defaultQuestionBudget = 4
	defaultMaxSteps       = 8
)

// action is one internally chained step of a turn.
type action int

const (
	actionWait action = iota
	actionConversation
	actionResearch
	actionAnalyze
	actionFinalize
	actionReset
)

// Controller owns the turn-by-turn stage transitions of a triage dialogue.
// It is stateless across calls: all session state lives in the DialogueState
// it is handed, so one Controller serves any number of sessions.
type Controller struct {
	llm       model.CompletionClient
	research  model.ResearchClient
	extractor *SymptomExtractor

	questionBudget int
	maxSteps       int
}

func NewController(llm model.CompletionClient, research model.ResearchClient, cfg model.DialogueConfig) *Controller {
	budget := cfg.QuestionBudget
	if budget <= 0 {
		budget = defaultQuestionBudget
	}
	steps := cfg.MaxSteps
	if steps <= 0 {
		steps = defaultMaxSteps
	}
	return &Controller{
		llm:            llm,
		research:       research,
		extractor:      NewSymptomExtractor(llm),
		questionBudget: budget,
		maxSteps:       steps,
	}
}

// Start creates a fresh dialogue seeded with the user's first message and runs
// the opening turn.
func (c *Controller) Start(ctx context.Context, firstMessage string) (*model.DialogueState, error) {
	st := model.NewDialogueState(firstMessage)
	if err := c.run(ctx, st, actionConversation); err != nil {
		return nil, err
	}
	return st, nil
}

// Continue appends the user's message to an existing dialogue and advances the
// state machine until it needs more user input or reaches completion. On error
// st is left partially mutated; callers clone before the call and commit only
// on success.
func (c *Controller) Continue(ctx context.Context, st *model.DialogueState, userText string) error {
	st.Append(schema.UserMessage(userText))

	entry, err := c.entryAction(st, userText)
	if err != nil {
		return err
	}
	return c.run(ctx, st, entry)
}

// entryAction picks the handler for the inbound message based on the current
// stage. Topic-change detection takes priority over ordinary continuation.
func (c *Controller) entryAction(st *model.DialogueState, userText string) (action, error) {
	switch st.Stage {
	case model.StageComplete:
		if IsTopicChange(userText) {
			return actionReset, nil
		}
		next, err := model.Next(st.Stage, model.EventReopen)
		if err != nil {
			return actionWait, err
		}
		st.Stage = next
		return actionConversation, nil
	case model.StageResearch:
		// Not reachable through committed states, but harmless to resume.
		return actionResearch, nil
	default:
		return actionConversation, nil
	}
}

// run drives the chained stage advances of one turn under the step cap. The
// cap is a safety valve: the normal deepest chain (conversation, research,
// analysis, final) is four steps.
func (c *Controller) run(ctx context.Context, st *model.DialogueState, next action) error {
	for step := 0; step < c.maxSteps; step++ {
		switch next {
		case actionWait:
			return nil

		case actionConversation:
			if err := c.conversationTurn(ctx, st); err != nil {
				return err
			}
			next = c.dispatch(st)

		case actionResearch:
			c.researchStep(ctx, st)
			next = actionAnalyze

		case actionAnalyze:
			if err := c.analysisStep(ctx, st); err != nil {
				return err
			}
			next = c.dispatch(st)

		case actionFinalize:
			return c.finalize(st)

		case actionReset:
			c.resetStep(st)
			next = actionConversation

		default:
			return fmt.Errorf("unknown dialogue action %d", next)
		}
	}

	// Step cap exceeded: flag it and force the analysis pipeline against the
	// state gathered so far.
	logx.Warn().Int("max_steps", c.maxSteps).Msg("step cap reached, forcing final report")
	st.Append(schema.AssistantMessage(overrunWarning, nil))
	if err := c.analysisStep(ctx, st); err != nil {
		return err
	}
	return c.finalize(st)
}

// dispatch decides the next chained step after a handler has run.
func (c *Controller) dispatch(st *model.DialogueState) action {
	if st.AnalysisComplete {
		return actionFinalize
	}
	switch st.Stage {
	case model.StageConversation:
		// The conversation handler always leaves an assistant question as the
		// newest message, so the turn pauses for the user's answer.
		return actionWait
	case model.StageResearch:
		return actionResearch
	default:
		return actionWait
	}
}

// conversationTurn runs one clarifying-question exchange: refresh the symptom
// extraction if stale, ask the model for exactly one follow-up question (or
// the readiness statement), and decide whether to move on to research.
func (c *Controller) conversationTurn(ctx context.Context, st *model.DialogueState) error {
	if err := c.extractor.Refresh(ctx, st); err != nil {
		return err
	}

	var prompt string
	var err error
	if st.QuestionCount == 0 {
		prompt, err = prompts.RenderIntake(ctx, lastUserContent(st))
	} else {
		prompt, err = prompts.RenderFollowUp(ctx, prompts.FormatTranscript(st.Messages), c.questionBudget)
	}
	if err != nil {
		return err
	}

	reply, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	st.Append(schema.AssistantMessage(reply, nil))

	// Question budget is checked before incrementing, matching the cutoff the
	// follow-up prompt announces to the model.
	event := model.EventClarify
	if IsReadySignal(reply) || st.QuestionCount >= c.questionBudget {
		event = model.EventReady
	}
	next, err := model.Next(st.Stage, event)
	if err != nil {
		return err
	}
	st.Stage = next
	st.QuestionCount++

	logx.Debug().
		Str("stage", st.Stage.String()).
		Int("question_count", st.QuestionCount).
		Msg("conversation turn complete")
	return nil
}

// researchStep issues the single research query. The research client never
// fails; a transport error arrives as visible text and is stored as if it were
// a legitimate answer, so the turn always proceeds to analysis.
func (c *Controller) researchStep(ctx context.Context, st *model.DialogueState) {
	query, err := prompts.RenderResearchQuery(ctx, st.UserMessages(), st.SymptomDetails.Extracted)
	if err != nil {
		// Prompt rendering has no runtime inputs that can fail here; degrade
		// the same way a transport error would.
		query = fmt.Sprintf("Research medical conditions for these symptoms: %v", st.UserMessages())
	}
	st.ResearchResults = c.research.Research(ctx, query)
	logx.Debug().Int("research_len", len(st.ResearchResults)).Msg("research complete")
}

// analysisStep produces the risk-labelled report from symptoms, extraction and
// research findings.
func (c *Controller) analysisStep(ctx context.Context, st *model.DialogueState) error {
	prompt, err := prompts.RenderAnalysis(ctx, st.UserMessages(), st.SymptomDetails.Extracted, st.ResearchResults)
	if err != nil {
		return err
	}
	report, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	st.Report = report
	st.AnalysisComplete = true
	return nil
}

// finalize emits the terminal assistant message: the report plus the
// machine-readable completion marker.
func (c *Controller) finalize(st *model.DialogueState) error {
	st.Append(schema.AssistantMessage(st.Report+"\n\n"+CompletionMarker, nil))
	next, err := model.Next(st.Stage, model.EventFinalized)
	if err != nil {
		return err
	}
	st.Stage = next
	logx.Debug().Msg("final report emitted")
	return nil
}

// resetStep discards everything except the triggering user message and
// acknowledges the topic change. The chained conversation turn then opens the
// new topic with a fresh intake question.
func (c *Controller) resetStep(st *model.DialogueState) {
	trigger := lastUserContent(st)

	fresh := model.NewDialogueState(trigger)
	fresh.Append(schema.AssistantMessage(resetAcknowledgement, nil))
	*st = *fresh
	logx.Debug().Msg("conversation reset for new topic")
}

// lastUserContent returns the content of the newest user-role message.
func lastUserContent(st *model.DialogueState) string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i] != nil && st.Messages[i].Role == schema.User {
			return st.Messages[i].Content
		}
	}
	return ""
}

package types

import "fmt"

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

// Session statuses in lifecycle order.
const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Rank returns the position of the status in the lifecycle, or -1 if unknown.
func (s SessionStatus) Rank() int {
	switch s {
	case SessionPlanned:
		return 0
	case SessionInProgress:
		return 1
	case SessionCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	return s.Rank() >= 0
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
// Staying in the same status is not a transition.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	return s.Valid() && next.Valid() && next.Rank() > s.Rank()
}

// ParseSessionStatus converts a stored value to a SessionStatus.
func ParseSessionStatus(v string) (SessionStatus, error) {
	s := SessionStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown session status %q", v)
	}
	return s, nil
}

// QuestionType classifies an interview question.
type QuestionType string

// Question types.
const (
	QuestionTechnical   QuestionType = "technical"
	QuestionBehavioral  QuestionType = "behavioral"
	QuestionSituational QuestionType = "situational"
	QuestionGeneral     QuestionType = "general"
)

// Normalize maps unknown or empty types to general.
func (q QuestionType) Normalize() QuestionType {
	switch q {
	case QuestionTechnical, QuestionBehavioral, QuestionSituational, QuestionGeneral:
		return q
	default:
		return QuestionGeneral
	}
}

// QuestionSource records which agent produced a question.
type QuestionSource string

// Question sources.
const (
	SourceStrategist  QuestionSource = "strategist"
	SourceInterviewer QuestionSource = "interviewer"
)

// ReactionType tags what the interviewer did in a turn.
type ReactionType string

// Reaction types.
const (
	ReactionGreeting         ReactionType = "greeting"
	ReactionClarification    ReactionType = "clarification"
	ReactionAcknowledgment   ReactionType = "acknowledgment"
	ReactionTransitionToNext ReactionType = "transition_to_next"
	ReactionFollowUp         ReactionType = "follow_up"
	ReactionConclusion       ReactionType = "conclusion"
)

// InterviewerReply is the JSON payload the interviewer assistant returns each turn.
type InterviewerReply struct {
	Message         string          `json:"message"`
	ReactionType    ReactionType    `json:"reaction_type"`
	NextQuestion    *NextQuestion   `json:"next_question,omitempty"`
	InterviewStatus InterviewStatus `json:"interview_status"`
}

// NextQuestion is a question the interviewer intends to ask next.
type NextQuestion struct {
	Question     string       `json:"question"`
	Type         QuestionType `json:"type,omitempty"`
	RelatedSkill string       `json:"related_skill,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	FocusArea    string       `json:"focus_area,omitempty"`
}

// InterviewStatus is the interviewer's progress snapshot.
type InterviewStatus struct {
	CurrentQuestionIndex int      `json:"current_question_index"`
	TotalQuestions       int      `json:"total_questions"`
	CompletionPercentage float64  `json:"completion_percentage"`
	CoveredAreas         []string `json:"covered_areas"`
	RemainingAreas       []string `json:"remaining_areas"`
}

// IsConclusion reports whether the reply ends the interview.
func (r *InterviewerReply) IsConclusion() bool {
	return r.ReactionType == ReactionConclusion
}

// HasNextQuestion reports whether the reply carries a usable next question.
func (r *InterviewerReply) HasNextQuestion() bool {
	return r.NextQuestion != nil && r.NextQuestion.Question != ""
}

// ClampCompletion keeps the completion percentage within 0-100.
func (s *InterviewStatus) ClampCompletion() {
	s.CompletionPercentage = max(0, min(100, s.CompletionPercentage))
}

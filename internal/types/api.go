package types

// ParseResumeRequest carries pasted resume text.
type ParseResumeRequest struct {
	ResumeText string `json:"resume_text" validate:"required"`
}

// SaveResumeRequest stores a parsed resume as the caller's active resume.
type SaveResumeRequest struct {
	RawText    string           `json:"raw_text" validate:"required"`
	Structured StructuredResume `json:"structured"`
}

// CreateStrategyRequest asks the strategist to plan an interview.
type CreateStrategyRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	ResumeID       string `json:"resume_id" validate:"required,uuid"`
}

// ContinueInterviewRequest submits one candidate turn.
type ContinueInterviewRequest struct {
	ThreadID          string `json:"thread_id,omitempty"`
	Answer            string `json:"answer" validate:"required"`
	CurrentQuestionID string `json:"current_question_id,omitempty" validate:"omitempty,uuid"`
}

// EvaluateAnswerRequest scores either new answer text or a stored answer.
type EvaluateAnswerRequest struct {
	AnswerText string `json:"answer_text,omitempty" validate:"required_without=AnswerID"`
	AnswerID   string `json:"answer_id,omitempty" validate:"omitempty,uuid"`
}

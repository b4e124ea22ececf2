package types

// Score bounds for answer evaluations.
const (
	MinScore = 1
	MaxScore = 10
)

// EvaluationReply is the evaluator model's JSON payload for one answer.
type EvaluationReply struct {
	Score        int            `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Feedback     string         `json:"feedback"`
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	ModelAnswer  string         `json:"model_answer"`
}

// ScoreBreakdown scores individual qualities of an answer.
type ScoreBreakdown struct {
	Relevance int `json:"relevance"`
	Depth     int `json:"depth"`
	Clarity   int `json:"clarity"`
	Structure int `json:"structure"`
}

// ClampScore bounds a score to MinScore..MaxScore.
func ClampScore(v int) int {
	return max(MinScore, min(MaxScore, v))
}

// Clamp bounds every score in the reply.
func (e *EvaluationReply) Clamp() {
	e.Score = ClampScore(e.Score)
	e.Breakdown.Relevance = ClampScore(e.Breakdown.Relevance)
	e.Breakdown.Depth = ClampScore(e.Breakdown.Depth)
	e.Breakdown.Clarity = ClampScore(e.Breakdown.Clarity)
	e.Breakdown.Structure = ClampScore(e.Breakdown.Structure)
}

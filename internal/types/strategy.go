package types

// Importance ranks how much a job cares about a skill.
type Importance string

// Importance levels reported by the strategist.
const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// JobAnalysis is the structured reading of a job description.
type JobAnalysis struct {
	Title           string             `json:"title"`
	Company         string             `json:"company,omitempty"`
	RequiredSkills  []SkillRequirement `json:"required_skills"`
	PreferredSkills []SkillRequirement `json:"preferred_skills"`
	ExperienceLevel string             `json:"experience_level,omitempty"`
}

// SkillRequirement is a skill named by the job with its importance.
type SkillRequirement struct {
	Skill      string     `json:"skill"`
	Importance Importance `json:"importance"`
}

// RecommendedQuestion is a pre-planned interview question.
type RecommendedQuestion struct {
	Question     string       `json:"question"`
	Type         QuestionType `json:"type"`
	RelatedSkill string       `json:"related_skill,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	FocusArea    string       `json:"focus_area,omitempty"`
}

package types

// StructuredResume is the canonical parsed form of a resume.
type StructuredResume struct {
	ParsedSkills ParsedSkills `json:"parsed_skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Projects     []Project    `json:"projects"`
}

// ParsedSkills splits skills into technical and soft skills.
type ParsedSkills struct {
	Technical []Skill `json:"technical"`
	Soft      []Skill `json:"soft"`
}

// Skill is a single skill with optional proficiency details.
type Skill struct {
	Skill   string   `json:"skill"`
	Level   string   `json:"level,omitempty"`
	Years   *float64 `json:"years,omitempty"`
	Context string   `json:"context,omitempty"`
}

// Experience is one employment history entry.
type Experience struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Duration   Duration `json:"duration"`
	Highlights []string `json:"highlights"`
}

// Duration is a length of time in whole years and months.
type Duration struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// TotalMonths returns the duration expressed in months.
func (d Duration) TotalMonths() int {
	return d.Years*12 + d.Months
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
}

// Project is a personal or professional project listed on a resume.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// IsComplete reports whether the resume carries the sections the strategist needs.
func (r *StructuredResume) IsComplete() bool {
	if r == nil {
		return false
	}
	hasSkills := len(r.ParsedSkills.Technical) > 0 || len(r.ParsedSkills.Soft) > 0
	return hasSkills && len(r.Experience) > 0 && len(r.Education) > 0
}

// SkillNames returns every technical and soft skill name in order.
func (r *StructuredResume) SkillNames() []string {
	names := make([]string, 0, len(r.ParsedSkills.Technical)+len(r.ParsedSkills.Soft))
	for _, s := range r.ParsedSkills.Technical {
		names = append(names, s.Skill)
	}
	for _, s := range r.ParsedSkills.Soft {
		names = append(names, s.Skill)
	}
	return names
}

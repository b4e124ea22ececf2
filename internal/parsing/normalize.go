package parsing

import (
	"strings"

	"github.com/jonathan/izzy/internal/types"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":      "Go",
	"go lang":     "Go",
	"javascript":  "JavaScript",
	"js":          "JavaScript",
	"typescript":  "TypeScript",
	"ts":          "TypeScript",
	"k8s":         "Kubernetes",
	"kubernetes":  "Kubernetes",
	"react.js":    "React",
	"reactjs":     "React",
	"vue.js":      "Vue",
	"vuejs":       "Vue",
	"node.js":     "Node.js",
	"nodejs":      "Node.js",
	"postgres":    "PostgreSQL",
	"postgresql":  "PostgreSQL",
	"py":          "Python",
	"ml":          "Machine Learning",
	"gcp":         "Google Cloud",
	"aws":         "AWS",
	"sql":         "SQL",
	"ci/cd":       "CI/CD",
	"html":        "HTML",
	"css":         "CSS",
	"c#":          "C#",
	"c++":         "C++",
	"teamwork":    "Teamwork",
	"team player": "Teamwork",
}

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.TrimSpace(skillName)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// All-caps single words that are not known acronyms get title case
	if normalized == strings.ToUpper(normalized) && len(normalized) > 1 && !strings.Contains(lower, " ") {
		return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
	}

	// Mixed case is kept as written
	if normalized != strings.ToLower(normalized) {
		return normalized
	}

	if !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// NormalizeSkills canonicalizes names and merges duplicates. The first
// occurrence wins; later duplicates only fill in missing details.
func NormalizeSkills(skills []types.Skill) []types.Skill {
	if len(skills) == 0 {
		return skills
	}

	normalized := make([]types.Skill, 0, len(skills))
	seen := make(map[string]int)

	for _, s := range skills {
		name := NormalizeSkillName(s.Skill)
		if name == "" {
			continue
		}

		if idx, exists := seen[name]; exists {
			existing := &normalized[idx]
			if existing.Level == "" {
				existing.Level = s.Level
			}
			if existing.Years == nil {
				existing.Years = s.Years
			}
			if existing.Context == "" {
				existing.Context = s.Context
			}
			continue
		}

		s.Skill = name
		normalized = append(normalized, s)
		seen[name] = len(normalized) - 1
	}

	return normalized
}

// NormalizeRequirements canonicalizes job skill names and deduplicates them,
// keeping the highest importance seen for each skill.
func NormalizeRequirements(reqs []types.SkillRequirement) []types.SkillRequirement {
	if len(reqs) == 0 {
		return reqs
	}

	normalized := make([]types.SkillRequirement, 0, len(reqs))
	seen := make(map[string]int)

	for _, req := range reqs {
		name := NormalizeSkillName(req.Skill)
		if name == "" {
			continue
		}
		importance := normalizeImportance(req.Importance)

		if idx, exists := seen[name]; exists {
			if importanceRank(importance) > importanceRank(normalized[idx].Importance) {
				normalized[idx].Importance = importance
			}
			continue
		}

		normalized = append(normalized, types.SkillRequirement{Skill: name, Importance: importance})
		seen[name] = len(normalized) - 1
	}

	return normalized
}

func normalizeImportance(i types.Importance) types.Importance {
	switch types.Importance(strings.ToLower(strings.TrimSpace(string(i)))) {
	case types.ImportanceHigh:
		return types.ImportanceHigh
	case types.ImportanceLow:
		return types.ImportanceLow
	default:
		return types.ImportanceMedium
	}
}

func importanceRank(i types.Importance) int {
	switch i {
	case types.ImportanceHigh:
		return 3
	case types.ImportanceMedium:
		return 2
	case types.ImportanceLow:
		return 1
	}
	return 0
}

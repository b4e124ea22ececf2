package parsing

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/izzy/internal/types"
)

// Shape identifies which layout a parsed resume reply uses.
type Shape int

const (
	// ShapeUnknown has neither skills layout.
	ShapeUnknown Shape = iota
	// ShapeCurrent carries parsed_skills with skill objects and numeric durations.
	ShapeCurrent
	// ShapeLegacy carries flat skills.technical string lists and free-text durations.
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeCurrent:
		return "current"
	case ShapeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// DetectShape classifies a resume JSON object.
func DetectShape(raw string) Shape {
	root := gjson.Parse(raw)
	switch {
	case root.Get("parsed_skills").IsObject():
		return ShapeCurrent
	case root.Get("skills").IsObject():
		return ShapeLegacy
	default:
		return ShapeUnknown
	}
}

// NormalizeResume converts a resume reply in either shape to the canonical
// StructuredResume. Skill names are canonicalized and duplicates merged.
func NormalizeResume(raw string) (*types.StructuredResume, error) {
	if !gjson.Valid(raw) {
		return nil, ErrInvalidJSON
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	var skills gjson.Result
	switch DetectShape(raw) {
	case ShapeCurrent:
		skills = root.Get("parsed_skills")
	case ShapeLegacy:
		skills = root.Get("skills")
	default:
		return nil, ErrNoSkills
	}

	resume := &types.StructuredResume{
		ParsedSkills: types.ParsedSkills{
			Technical: NormalizeSkills(readSkills(skills.Get("technical"))),
			Soft:      NormalizeSkills(readSkills(skills.Get("soft"))),
		},
		Experience: readExperience(root.Get("experience")),
		Education:  readEducation(root.Get("education")),
		Projects:   readProjects(root.Get("projects")),
	}
	return resume, nil
}

// readSkills accepts bare strings and skill objects in the same list.
func readSkills(list gjson.Result) []types.Skill {
	var skills []types.Skill
	list.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Type == gjson.String:
			skills = append(skills, types.Skill{Skill: item.String()})
		case item.IsObject():
			s := types.Skill{
				Skill:   firstString(item, "skill", "name"),
				Level:   item.Get("level").String(),
				Context: item.Get("context").String(),
			}
			if years, ok := readYears(item.Get("years")); ok {
				s.Years = &years
			}
			skills = append(skills, s)
		}
		return true
	})
	return skills
}

// readYears reports a stated number of years, including an explicit zero.
// Missing, null, negative and non-numeric values are unknown.
func readYears(v gjson.Result) (float64, bool) {
	var years float64
	switch v.Type {
	case gjson.Number:
		years = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, false
		}
		years = parsed
	default:
		return 0, false
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}

func readExperience(list gjson.Result) []types.Experience {
	var out []types.Experience
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		exp := types.Experience{
			Title:      firstString(item, "title", "role", "position"),
			Company:    item.Get("company").String(),
			Duration:   readDuration(item.Get("duration")),
			Highlights: stringList(item.Get("highlights")),
		}
		if len(exp.Highlights) == 0 {
			exp.Highlights = stringList(item.Get("responsibilities"))
		}
		out = append(out, exp)
		return true
	})
	return out
}

// readDuration accepts {years, months} objects, bare year counts and free text.
func readDuration(v gjson.Result) types.Duration {
	switch {
	case v.IsObject():
		years := v.Get("years").Float()
		whole := int(years)
		d := types.Duration{
			Years:  whole,
			Months: int(v.Get("months").Int()) + int((years-float64(whole))*12+0.5),
		}
		return normalizeDuration(d)
	case v.Type == gjson.Number:
		return ParseDuration(v.Raw + " years")
	case v.Type == gjson.String:
		return ParseDuration(v.String())
	default:
		return types.Duration{}
	}
}

func readEducation(list gjson.Result) []types.Education {
	var out []types.Education
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		out = append(out, types.Education{
			Degree:      item.Get("degree").String(),
			Field:       firstString(item, "field", "field_of_study", "major"),
			Institution: firstString(item, "institution", "school", "university"),
			Year:        firstString(item, "year", "graduation_year"),
		})
		return true
	})
	return out
}

func readProjects(list gjson.Result) []types.Project {
	var out []types.Project
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		out = append(out, types.Project{
			Name:         firstString(item, "name", "title"),
			Description:  item.Get("description").String(),
			Technologies: stringList(item.Get("technologies")),
		})
		return true
	})
	return out
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(item.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}

func stringList(list gjson.Result) []string {
	var out []string
	list.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

package parsing

import "errors"

// Reasons a resume reply cannot be normalized.
var (
	ErrInvalidJSON = errors.New("resume reply is not valid JSON")
	ErrNotObject   = errors.New("resume reply is not a JSON object")
	ErrNoSkills    = errors.New("resume reply has no skills section")
)

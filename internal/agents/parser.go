package agents

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/parsing"
	"github.com/jonathan/izzy/internal/prompts"
	"github.com/jonathan/izzy/internal/schemas"
	"github.com/jonathan/izzy/internal/types"
)

// Parser turns raw resume text into a StructuredResume.
type Parser struct {
	deps Deps
}

// Parse runs the resume-parser assistant over resumeText. Nothing is stored
// apart from the agent log; see SaveResume.
func (p *Parser) Parse(ctx context.Context, resumeText string) Result[types.StructuredResume] {
	started := time.Now()
	d := p.deps

	if err := requireAssistant("ASSISTANT_RESUME_PARSER_ID", d.Assistants.ResumeParser); err != nil {
		return fail[types.StructuredResume](err)
	}

	prompt, err := prompts.Render(prompts.ParseResume, map[string]string{"ResumeText": resumeText})
	if err != nil {
		return fail[types.StructuredResume](&ConfigError{Setting: prompts.ParseResume, Message: err.Error()})
	}

	_, reply, err := d.converse(ctx, d.Assistants.ResumeParser, prompt)
	if err != nil {
		d.Logger.Error("resume parse failed", slog.String("error", err.Error()))
		return fail[types.StructuredResume](err)
	}

	payload, err := decodeReply(reply, schemas.ResumeReply, nil)
	if err != nil {
		d.Logger.Warn("resume reply unusable", slog.String("error", err.Error()))
		return fail[types.StructuredResume](err)
	}

	shape := parsing.DetectShape(payload)
	resume, err := parsing.NormalizeResume(payload)
	if err != nil {
		return fail[types.StructuredResume](&ParseError{Message: "failed to normalize resume", Cause: err})
	}

	d.logAgent(ctx, db.AgentResumeParser, nil, resumeText,
		summarizeResume(resume), started)
	d.Logger.Info("resume parsed",
		slog.String("shape", shape.String()),
		slog.Int("technical_skills", len(resume.ParsedSkills.Technical)),
		slog.Int("experience", len(resume.Experience)),
		slog.Duration("elapsed", time.Since(started)))

	return ok(*resume)
}

// SaveResume stores a parsed resume as the user's active resume.
func (p *Parser) SaveResume(ctx context.Context, userID uuid.UUID, rawText string, structured types.StructuredResume) Result[*db.Resume] {
	if err := requireUser(userID); err != nil {
		return fail[*db.Resume](err)
	}
	if strings.TrimSpace(rawText) == "" {
		return fail[*db.Resume](&ValidationError{Message: "resume text is required"})
	}

	saved, err := p.deps.Store.SaveResume(ctx, userID, rawText, &structured)
	if err != nil {
		return fail[*db.Resume](storageErr("failed to save resume", err))
	}
	return ok(saved)
}

func summarizeResume(r *types.StructuredResume) string {
	return strings.Join(r.SkillNames(), ", ")
}

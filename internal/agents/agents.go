// Package agents implements the interview-preparation pipeline: the resume
// parser, the strategist, the interviewer and the evaluator. Every entry point
// resolves the caller, checks ownership and returns a Result.
package agents

import (
	"log/slog"

	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/llm"
	"github.com/jonathan/izzy/internal/locks"
)

// AssistantIDs are the provider-side assistant identifiers, one per
// conversational agent. An empty id disables only that agent.
type AssistantIDs struct {
	ResumeParser string
	Strategist   string
	Interviewer  string
}

// Deps holds the collaborators shared by every agent.
type Deps struct {
	Store      Store
	Provider   assistant.Provider
	Poller     assistant.Poller
	LLM        llm.Client
	Locker     locks.Locker
	Logger     *slog.Logger
	Assistants AssistantIDs
}

// Agents bundles the four pipeline stages and the record queries.
type Agents struct {
	Parser      *Parser
	Strategist  *Strategist
	Interviewer *Interviewer
	Evaluator   *Evaluator
	Records     *Records
}

// New wires every agent against the same dependencies.
func New(d Deps) *Agents {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Locker == nil {
		d.Locker = locks.NewMemory(locks.DefaultOptions())
	}
	if d.Poller == (assistant.Poller{}) {
		d.Poller = assistant.DefaultPoller()
	}
	return &Agents{
		Parser:      &Parser{deps: d},
		Strategist:  &Strategist{deps: d},
		Interviewer: &Interviewer{deps: d},
		Evaluator:   &Evaluator{deps: d},
		Records:     &Records{deps: d},
	}
}

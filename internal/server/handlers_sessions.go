package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/agents"
	"github.com/jonathan/izzy/internal/types"
)

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req types.CreateStrategyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resumeID, err := uuid.Parse(req.ResumeID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "validation error: ResumeID - uuid")
		return
	}
	writeResult(s, w, http.StatusCreated, s.agents.Strategist.Analyze(r.Context(), userID, req.JobDescription, resumeID))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.ListSessions(r.Context(), userID))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sessionID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.SessionDetail(r.Context(), userID, sessionID))
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sessionID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Interviewer.Start(r.Context(), userID, sessionID))
}

func (s *Server) handleContinueInterview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, req, ok := s.continueRequest(w, r)
	if !ok {
		return
	}
	res := s.agents.Interviewer.Continue(r.Context(), userID, sessionID, req.ThreadID, req.Answer, optionalID(req.CurrentQuestionID))
	writeResult(s, w, http.StatusOK, res)
}

// handleContinueInterviewStream runs the same turn as handleContinueInterview
// and replays the reply as chunk events, then one turn event and complete.
func (s *Server) handleContinueInterviewStream(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, req, ok := s.continueRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	res := s.agents.Interviewer.Continue(r.Context(), userID, sessionID, req.ThreadID, req.Answer, optionalID(req.CurrentQuestionID))
	if !res.Success {
		sse.WriteError(res.Error)
		return
	}

	if err := sse.StreamText(r.Context(), res.Data.Message, s.chunkDelay); err != nil {
		s.logger.Info("interview stream interrupted", slog.String("session_id", sessionID.String()), slog.Any("error", err))
		return
	}
	if err := sse.WriteEvent("turn", res); err != nil {
		return
	}

	status := types.SessionInProgress
	if res.Data.IsComplete {
		status = types.SessionCompleted
	}
	sse.WriteComplete(sessionID.String(), string(status))
}

func (s *Server) continueRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, types.ContinueInterviewRequest, bool) {
	var req types.ContinueInterviewRequest
	userID, ok := s.caller(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, req, false
	}
	sessionID, ok := s.pathID(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, req, false
	}
	if !s.decodeJSON(w, r, &req) {
		return uuid.Nil, uuid.Nil, req, false
	}
	return userID, sessionID, req, true
}

func (s *Server) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sessionID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	questionID, ok := s.pathID(w, r, "question_id")
	if !ok {
		return
	}
	var req types.EvaluateAnswerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res := s.agents.Evaluator.Evaluate(r.Context(), userID, agents.EvaluateRequest{
		SessionID:  sessionID,
		QuestionID: questionID,
		AnswerText: req.AnswerText,
		AnswerID:   optionalID(req.AnswerID),
	})
	writeResult(s, w, http.StatusCreated, res)
}

func (s *Server) handleDeleteJobPosting(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	postingID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.DeleteJobPosting(r.Context(), userID, postingID))
}

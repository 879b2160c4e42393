package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/review"
)

// maxWebhookBody caps webhook payloads. GitHub's own limit is lower.
const maxWebhookBody = 1 << 20

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Reviews ---

type createReviewRequest struct {
	Reference    string   `json:"reference"`
	Instructions string   `json:"instructions,omitempty"`
	Agents       []string `json:"agents,omitempty"`
	Post         bool     `json:"post,omitempty"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	target, err := github.ParseReference(req.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agents, err := review.SelectAgents(req.Agents, s.rosterAgents())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run := s.store.Start(RunRequest{
		Target:       target,
		Agents:       agents,
		Instructions: req.Instructions,
		Post:         req.Post,
	})
	s.logger.Printf("review %s started for %s", run.ID, target)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": run.ID})
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run id")
		return
	}
	if !run.Done() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
		return
	}

	rep, err := run.Result()
	if rep == nil {
		msg := "run produced no report"
		if err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// --- Webhook ---

type webhookPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// reviewableActions are the pull_request actions that trigger a review.
var reviewableActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	if s.opts.WebhookSecret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if !github.VerifySignature(body, sig, s.opts.WebhookSecret) {
			writeError(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}
	}

	if event := r.Header.Get("X-GitHub-Event"); event != "pull_request" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event": event})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "parsing payload: "+err.Error())
		return
	}
	if !reviewableActions[payload.Action] {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "action": payload.Action})
		return
	}

	owner := payload.Repository.Owner.Login
	repo := payload.Repository.Name
	number := payload.PullRequest.Number
	if owner == "" || repo == "" || number == 0 {
		writeError(w, http.StatusBadRequest, "payload missing repository or PR number")
		return
	}

	agents, err := review.SelectAgents(nil, s.rosterAgents())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Webhook-triggered reviews post their summary back to the PR.
	run := s.store.Start(RunRequest{
		Target: review.Target{Owner: owner, Repo: repo, Number: number},
		Agents: agents,
		Post:   true,
	})
	s.logger.Printf("webhook %s: review %s started for %s/%s#%d",
		payload.Action, run.ID, owner, repo, number)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": run.ID})
}

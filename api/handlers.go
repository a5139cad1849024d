// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/blinklabs-io/sieve/custody"
	"github.com/blinklabs-io/sieve/database/models"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/blinklabs-io/sieve/internal/version"
)

const maxRequestBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// errorStatus maps engine errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidScore),
		errors.Is(err, engine.ErrInvalidProposal),
		errors.Is(err, engine.ErrInvalidExpertise),
		errors.Is(err, engine.ErrInvalidIdentity),
		errors.Is(err, engine.ErrHeightOverflow):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrExpired):
		return http.StatusGone
	case errors.Is(err, engine.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInsufficientStake),
		errors.Is(err, custody.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrTransferFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes the response for an error returned by the engine.
// Internal errors are logged and not echoed to the client.
func (s *Server) writeEngineError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestIdFromContext(r.Context()),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeBody reads and validates a JSON request body
func (s *Server) decodeBody(r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// callerIdentity returns the identity header, writing a 403 if it is missing
func callerIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := strings.TrimSpace(r.Header.Get(IdentityHeader))
	if identity == "" {
		writeError(
			w,
			http.StatusForbidden,
			"missing "+IdentityHeader+" header",
		)
		return "", false
	}
	return identity, true
}

func pathSubmissionId(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return 0, false
	}
	return id, true
}

// handleRoot handles GET / and returns API metadata.
func (s *Server) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Url:     "/api/v1",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health. The engine counts as healthy when its
// state can be read.
func (s *Server) handleHealth(
	w http.ResponseWriter,
	r *http.Request,
) {
	if _, err := s.engine.State(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleAuthorizeEvaluator(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req AuthorizeEvaluatorRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Expertise == nil {
		req.Expertise = []string{}
	}
	evaluator, err := s.engine.AuthorizeEvaluator(
		r.Context(),
		caller,
		req.Identity,
		req.Expertise,
	)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEvaluatorResponse(evaluator))
}

func (s *Server) handleListEvaluators(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	evaluators, err := s.engine.ListEvaluators(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(evaluators), params)
	page := paginate(evaluators, params)
	ret := make([]EvaluatorResponse, 0, len(page))
	for i := range page {
		ret = append(ret, newEvaluatorResponse(&page[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleGetEvaluator(
	w http.ResponseWriter,
	r *http.Request,
) {
	evaluator, err := s.engine.GetEvaluator(
		r.Context(),
		r.PathValue("identity"),
	)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEvaluatorResponse(evaluator))
}

func (s *Server) handleSubmitProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req SubmitProposalRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.engine.SubmitProposal(
		r.Context(),
		caller,
		req.Title,
		req.Category,
		req.StakeAmount,
	)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/proposals/%d", id))
	writeJSON(w, http.StatusCreated, SubmitProposalResponse{ID: id})
}

// handleListProposals handles GET /api/v1/proposals with optional status and
// creator filters
func (s *Server) handleListProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()
	filter := models.SubmissionFilter{
		Creator: query.Get("creator"),
	}
	if statusParam := query.Get("status"); statusParam != "" {
		status, ok := models.ParseSubmissionStatus(
			strings.ToUpper(statusParam),
		)
		if !ok {
			writeError(
				w,
				http.StatusBadRequest,
				fmt.Sprintf("invalid status %q", statusParam),
			)
			return
		}
		filter.Status = &status
	}
	submissions, err := s.engine.ListSubmissions(r.Context(), filter)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(submissions), params)
	page := paginate(submissions, params)
	ret := make([]SubmissionResponse, 0, len(page))
	for i := range page {
		ret = append(ret, newSubmissionResponse(&page[i], nil))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathSubmissionId(w, r)
	if !ok {
		return
	}
	sub, err := s.engine.GetSubmission(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	metrics, err := s.engine.GetProposalMetrics(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubmissionResponse(sub, metrics))
}

func (s *Server) handleEvaluateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathSubmissionId(w, r)
	if !ok {
		return
	}
	var req EvaluateProposalRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.EvaluateProposal(
		r.Context(),
		caller,
		id,
		*req.CommunityScore,
		*req.TechnicalScore,
		*req.FinancialScore,
	)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEvaluateProposalResponse(res))
}

func (s *Server) handleListEvaluations(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathSubmissionId(w, r)
	if !ok {
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	evaluations, err := s.engine.GetEvaluations(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(evaluations), params)
	page := paginate(evaluations, params)
	ret := make([]EvaluationResponse, 0, len(page))
	for i := range page {
		ret = append(ret, newEvaluationResponse(&page[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleState(
	w http.ResponseWriter,
	r *http.Request,
) {
	state, err := s.engine.State(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(state))
}

func (s *Server) handleSetEmergency(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req EmergencyModeRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.SetEmergencyMode(r.Context(), caller, *req.Enabled); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmergencyModeResponse{
		EmergencyMode: *req.Enabled,
	})
}

func (s *Server) handleCredit(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req CreditRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity := r.PathValue("identity")
	balance, err := s.engine.Credit(r.Context(), caller, identity, req.Amount)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Identity: identity,
		Balance:  balance,
	})
}

func (s *Server) handleBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	identity := r.PathValue("identity")
	balance, err := s.engine.Balance(r.Context(), identity)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Identity: identity,
		Balance:  balance,
	})
}

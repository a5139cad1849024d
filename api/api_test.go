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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/sieve/api"
	"github.com/blinklabs-io/sieve/custody"
	"github.com/blinklabs-io/sieve/database"
	"github.com/blinklabs-io/sieve/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwner     = "owner"
	testEvaluator = "eve"
	testCreator   = "alice"
)

type testServer struct {
	handler http.Handler
	engine  *engine.Engine
}

func newTestServer(t *testing.T, cfg api.ServerConfig) *testServer {
	t.Helper()
	return newTestServerWithCustody(t, cfg, nil)
}

// newTestServerWithCustody lets wrap replace the custodian the engine uses
func newTestServerWithCustody(
	t *testing.T,
	cfg api.ServerConfig,
	wrap func(*custody.Custody) engine.StakeCustodian,
) *testServer {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	engineCfg := engine.DefaultEngineConfig()
	engineCfg.Database = db
	c := custody.New(db, custody.CustodyConfig{})
	engineCfg.Custody = c
	if wrap != nil {
		engineCfg.Custody = wrap(c)
	}
	engineCfg.Owner = testOwner
	engineCfg.HeightInterval = 0
	e, err := engine.New(engineCfg)
	require.NoError(t, err)
	t.Cleanup(e.Stop)
	if cfg.PromRegistry == nil {
		cfg.PromRegistry = prometheus.NewRegistry()
	}
	srv := api.New(cfg, e, nil)
	return &testServer{handler: srv.Handler(), engine: e}
}

func (ts *testServer) do(
	t *testing.T,
	method string,
	path string,
	identity string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			reqBody.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&reqBody).Encode(v))
		}
	}
	req := httptest.NewRequest(method, path, &reqBody)
	if identity != "" {
		req.Header.Set(api.IdentityHeader, identity)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ret))
	return ret
}

// setup funds the creator and authorizes the evaluator
func (ts *testServer) setup(t *testing.T) {
	t.Helper()
	rec := ts.do(
		t,
		http.MethodPost,
		"/api/v1/accounts/"+testCreator+"/credit",
		testOwner,
		api.CreditRequest{Amount: 10 * engine.DefaultMinStake},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(
		t,
		http.MethodPost,
		"/api/v1/evaluators",
		testOwner,
		api.AuthorizeEvaluatorRequest{
			Identity:  testEvaluator,
			Expertise: []string{"infra"},
		},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (ts *testServer) submit(t *testing.T, title string) uint64 {
	t.Helper()
	rec := ts.do(
		t,
		http.MethodPost,
		"/api/v1/proposals",
		testCreator,
		api.SubmitProposalRequest{
			Title:       title,
			Category:    "infra",
			StakeAmount: engine.DefaultMinStake,
		},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.SubmitProposalResponse](t, rec).ID
}

func scores(c, t, f uint64) api.EvaluateProposalRequest {
	return api.EvaluateProposalRequest{
		CommunityScore: &c,
		TechnicalScore: &t,
		FinancialScore: &f,
	}
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	rec := ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	root := decode[api.RootResponse](t, rec)
	assert.Equal(t, "/api/v1", root.Url)
	assert.NotEmpty(t, root.Version)

	rec = ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.HealthResponse](t, rec).IsHealthy)
	assert.NotEmpty(t, rec.Header().Get(api.RequestIdHeader))
}

func TestRequestIdEchoed(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	const id = "0b6e0d9a-7f4e-4c57-9bb5-8f0d0c7f3b21"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.RequestIdHeader, id)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(api.RequestIdHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.RequestIdHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(api.RequestIdHeader))
}

func TestProposalLifecycle(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	id := ts.submit(t, "Upgrade the relays")
	assert.Equal(t, uint64(1), id)

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/proposals/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[api.SubmissionResponse](t, rec)
	assert.Equal(t, "SUBMITTED", sub.Status)
	assert.Equal(t, testCreator, sub.Creator)
	require.NotNil(t, sub.Metrics)
	assert.Equal(t, uint64(50), sub.Metrics.Complexity)

	rec = ts.do(
		t,
		http.MethodPost,
		fmt.Sprintf("/api/v1/proposals/%d/evaluations", id),
		testEvaluator,
		scores(75, 80, 60),
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.EvaluateProposalResponse](t, rec)
	assert.Equal(t, uint64(72), res.CompositeScore)
	assert.Equal(t, "QUALIFIED", res.Status)

	rec = ts.do(
		t,
		http.MethodGet,
		fmt.Sprintf("/api/v1/proposals/%d/evaluations", id),
		"",
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	evals := decode[[]api.EvaluationResponse](t, rec)
	require.Len(t, evals, 1)
	assert.Equal(t, testEvaluator, evals[0].Evaluator)
	assert.Equal(t, uint64(72), evals[0].CompositeScore)

	rec = ts.do(t, http.MethodGet, "/api/v1/evaluators/"+testEvaluator, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	evaluator := decode[api.EvaluatorResponse](t, rec)
	assert.Equal(t, uint64(1), evaluator.EvaluationCount)
	assert.Equal(t, []string{"infra"}, evaluator.ExpertiseAreas)

	rec = ts.do(t, http.MethodGet, "/api/v1/state", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[api.StateResponse](t, rec)
	assert.Equal(t, uint64(2), state.NextSubmissionID)
	assert.Equal(t, uint64(1), state.TotalActiveProposals)

	rec = ts.do(t, http.MethodGet, "/api/v1/accounts/"+testCreator, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		9*engine.DefaultMinStake,
		decode[api.BalanceResponse](t, rec).Balance,
	)
}

func TestListProposals(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	for i := range 3 {
		ts.submit(t, fmt.Sprintf("Proposal %d", i))
	}
	rec := ts.do(
		t,
		http.MethodPost,
		"/api/v1/proposals/2/evaluations",
		testEvaluator,
		scores(50, 80, 60),
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FILTERED", decode[api.EvaluateProposalResponse](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/proposals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Len(t, decode[[]api.SubmissionResponse](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/v1/proposals?status=filtered", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[[]api.SubmissionResponse](t, rec)
	require.Len(t, filtered, 1)
	assert.Equal(t, uint64(2), filtered[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/proposals?creator=bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.SubmissionResponse](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/v1/proposals?count=2&page=1&order=desc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Page-Total"))
	page := decode[[]api.SubmissionResponse](t, rec)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(3), page[0].ID)
	assert.Equal(t, uint64(2), page[1].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/proposals?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	id := ts.submit(t, "Upgrade the relays")
	evalPath := fmt.Sprintf("/api/v1/proposals/%d/evaluations", id)

	testDefs := []struct {
		name     string
		method   string
		path     string
		identity string
		body     any
		status   int
	}{
		{
			name:     "unauthorized evaluator",
			method:   http.MethodPost,
			path:     evalPath,
			identity: "mallory",
			body:     scores(75, 80, 60),
			status:   http.StatusForbidden,
		},
		{
			name:   "missing identity header",
			method: http.MethodPost,
			path:   evalPath,
			body:   scores(75, 80, 60),
			status: http.StatusForbidden,
		},
		{
			name:     "unknown proposal",
			method:   http.MethodPost,
			path:     "/api/v1/proposals/99/evaluations",
			identity: testEvaluator,
			body:     scores(75, 80, 60),
			status:   http.StatusNotFound,
		},
		{
			name:     "score out of range",
			method:   http.MethodPost,
			path:     evalPath,
			identity: testEvaluator,
			body:     scores(101, 80, 60),
			status:   http.StatusBadRequest,
		},
		{
			name:     "missing score",
			method:   http.MethodPost,
			path:     evalPath,
			identity: testEvaluator,
			body:     `{"community_score":75,"technical_score":80}`,
			status:   http.StatusBadRequest,
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     evalPath,
			identity: testEvaluator,
			body:     `{`,
			status:   http.StatusBadRequest,
		},
		{
			name:     "bad proposal id",
			method:   http.MethodPost,
			path:     "/api/v1/proposals/abc/evaluations",
			identity: testEvaluator,
			body:     scores(75, 80, 60),
			status:   http.StatusBadRequest,
		},
		{
			name:     "stake below minimum",
			method:   http.MethodPost,
			path:     "/api/v1/proposals",
			identity: testCreator,
			body: api.SubmitProposalRequest{
				Title:       "Too cheap",
				StakeAmount: engine.DefaultMinStake - 1,
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:     "unfunded creator",
			method:   http.MethodPost,
			path:     "/api/v1/proposals",
			identity: "bob",
			body: api.SubmitProposalRequest{
				Title:       "No funds",
				StakeAmount: engine.DefaultMinStake,
			},
			status: http.StatusPaymentRequired,
		},
		{
			name:     "empty title",
			method:   http.MethodPost,
			path:     "/api/v1/proposals",
			identity: testCreator,
			body: api.SubmitProposalRequest{
				StakeAmount: engine.DefaultMinStake,
			},
			status: http.StatusBadRequest,
		},
		{
			name:     "non-owner authorize",
			method:   http.MethodPost,
			path:     "/api/v1/evaluators",
			identity: testCreator,
			body:     api.AuthorizeEvaluatorRequest{Identity: "bob"},
			status:   http.StatusForbidden,
		},
		{
			name:     "too many expertise tags",
			method:   http.MethodPost,
			path:     "/api/v1/evaluators",
			identity: testOwner,
			body: api.AuthorizeEvaluatorRequest{
				Identity:  "bob",
				Expertise: []string{"a", "b", "c", "d", "e", "f"},
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown evaluator",
			method: http.MethodGet,
			path:   "/api/v1/evaluators/nobody",
			status: http.StatusNotFound,
		},
		{
			name:     "non-owner emergency",
			method:   http.MethodPut,
			path:     "/api/v1/emergency",
			identity: testCreator,
			body:     `{"enabled":true}`,
			status:   http.StatusForbidden,
		},
		{
			name:     "zero credit",
			method:   http.MethodPost,
			path:     "/api/v1/accounts/bob/credit",
			identity: testOwner,
			body:     api.CreditRequest{},
			status:   http.StatusBadRequest,
		},
	}
	for _, tc := range testDefs {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.method, tc.path, tc.identity, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			errResp := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, tc.status, errResp.StatusCode)
			assert.Equal(t, http.StatusText(tc.status), errResp.Error)
			assert.NotEmpty(t, errResp.Message)
		})
	}

	// None of the failures above changed the stored submission
	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/proposals/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[api.SubmissionResponse](t, rec)
	assert.Equal(t, "SUBMITTED", sub.Status)
	assert.Zero(t, sub.CommunityScore)
}

// panickingCustody panics when asked to move stake out of one account
type panickingCustody struct {
	*custody.Custody
	identity string
}

func (p *panickingCustody) Transfer(
	from string,
	amount uint64,
	txn *database.Txn,
) error {
	if from == p.identity {
		panic("transfer from " + from)
	}
	return p.Custody.Transfer(from, amount, txn)
}

func TestHandlerPanicKeepsStoreWritable(t *testing.T) {
	ts := newTestServerWithCustody(
		t,
		api.ServerConfig{},
		func(c *custody.Custody) engine.StakeCustodian {
			return &panickingCustody{Custody: c, identity: "boom"}
		},
	)
	ts.setup(t)
	rec := ts.do(
		t,
		http.MethodPost,
		"/api/v1/proposals",
		"boom",
		api.SubmitProposalRequest{
			Title:       "Explodes",
			StakeAmount: engine.DefaultMinStake,
		},
	)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body, err := json.Marshal(api.SubmitProposalRequest{
		Title:       "After the panic",
		Category:    "infra",
		StakeAmount: engine.DefaultMinStake,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", bytes.NewReader(body))
	req.Header.Set(api.IdentityHeader, testCreator)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		done <- rec
	}()
	select {
	case rec = <-done:
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, uint64(1), decode[api.SubmitProposalResponse](t, rec).ID)
	case <-time.After(5 * time.Second):
		t.Fatal("write blocked after a recovered handler panic")
	}
}

func TestReEvaluationConflict(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	id := ts.submit(t, "Upgrade the relays")
	path := fmt.Sprintf("/api/v1/proposals/%d/evaluations", id)
	rec := ts.do(t, http.MethodPost, path, testEvaluator, scores(75, 80, 60))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, path, testEvaluator, scores(10, 10, 10))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExpiredProposal(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	id := ts.submit(t, "Upgrade the relays")
	_, err := ts.engine.AdvanceHeight(
		context.Background(),
		engine.DefaultValidityPeriod+1,
	)
	require.NoError(t, err)
	rec := ts.do(
		t,
		http.MethodPost,
		fmt.Sprintf("/api/v1/proposals/%d/evaluations", id),
		testEvaluator,
		scores(75, 80, 60),
	)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestEmergencyMode(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	ts.setup(t)
	rec := ts.do(t, http.MethodPut, "/api/v1/emergency", testOwner, `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.EmergencyModeResponse](t, rec).EmergencyMode)

	rec = ts.do(
		t,
		http.MethodPost,
		"/api/v1/proposals",
		testCreator,
		api.SubmitProposalRequest{Title: "Blocked", StakeAmount: engine.DefaultMinStake},
	)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/emergency", testOwner, `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ts.submit(t, "Unblocked")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{RateLimit: 1, RateBurst: 2})
	for range 2 {
		rec := ts.do(t, http.MethodGet, "/api/v1/state", "carol", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(t, http.MethodGet, "/api/v1/state", "carol", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	// Other callers have their own bucket
	rec = ts.do(t, http.MethodGet, "/api/v1/state", "dave", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartStop(t *testing.T) {
	ts := newTestServer(t, api.ServerConfig{})
	srv := api.New(
		api.ServerConfig{ListenAddress: "127.0.0.1:0"},
		ts.engine,
		nil,
	)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	require.Error(t, srv.Start(ctx))
	addr := srv.Addr()
	require.NotNil(t, addr)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, srv.Stop(stopCtx))
	require.NoError(t, srv.Stop(stopCtx))
}

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
	"github.com/ashureev/agent-onboarding/internal/poller"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/ashureev/agent-onboarding/internal/store"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]domain.AgentRecord
	err     error
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]domain.AgentRecord)}
}

func (m *memRepo) GetLatestAgent(_ context.Context, agentID string) (*domain.AgentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[agentID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return &rec, nil
}

func (m *memRepo) AgentExists(_ context.Context, agentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.records[agentID]
	return ok, nil
}

func (m *memRepo) UpdateAgent(_ context.Context, agentID string, patch domain.AgentPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec, ok := m.records[agentID]
	if !ok {
		return store.ErrRecordNotFound
	}
	m.records[agentID] = rec.Apply(patch)
	return nil
}

func (m *memRepo) CreateAgent(_ context.Context, rec *domain.AgentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.AgentID] = *rec
	return nil
}

func (m *memRepo) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type stubSubmitter struct{}

func (stubSubmitter) Submit(context.Context, domain.OnboardingSubmission) automation.Outcome {
	return automation.Outcome{StatusCode: http.StatusOK}
}

type testEnv struct {
	repo   *memRepo
	svc    *onboarding.Service
	server *httptest.Server
}

func newTestEnv(t *testing.T, checker poller.Checker) *testEnv {
	t.Helper()
	repo := newMemRepo()
	if checker == nil {
		checker = repo
	}
	svc := onboarding.NewService(onboarding.Config{
		Submitter: stubSubmitter{},
		Checker:   checker,
		Build: build.Config{
			TotalDuration:   400 * time.Millisecond,
			TickInterval:    5 * time.Millisecond,
			CompletionDelay: 10 * time.Millisecond,
			FactInterval:    50 * time.Millisecond,
			EarlyFloor:      0.20,
			Poll: poller.Options{
				StartDelay:   time.Millisecond,
				Interval:     5 * time.Millisecond,
				QueryTimeout: time.Second,
			},
		},
	})

	r := chi.NewRouter()
	NewHandler(svc, profile.NewEditor(repo, nil), nil).RegisterRoutes(r)
	NewHealthHandler(repo, time.Second, svc.ActiveSessions).RegisterHealth(r)
	r.With(identity.Middleware).Get("/ws/builds/{agentID}", NewWebSocketHandler(svc, "*", true, nil).ServeHTTP)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		svc.Shutdown()
		srv.Close()
	})
	return &testEnv{repo: repo, svc: svc, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func validForm() domain.OnboardingForm {
	return domain.OnboardingForm{
		FullName:            "Jane Doe",
		Email:               "jane@acme.test",
		CompanyName:         "Acme",
		WebsiteURL:          "https://acme.test",
		BusinessDescription: "Acme is an agency that helps local restaurants win customers through search.",
	}
}

func sampleRecord(agentID string) *domain.AgentRecord {
	return &domain.AgentRecord{
		AgentID:            agentID,
		UserName:           "Jane Doe",
		Email:              "jane@acme.test",
		CompanyName:        "Acme",
		ICPIndustries:      "Retail, Hospitality",
		ICPGeo:             "Texas",
		ICPEmployees:       1200,
		ICPTitle:           "Owner",
		KeyDifferentiators: "Fast; Local; Cheap; Friendly",
		CreatedAt:          time.Now(),
	}
}

func TestSubmit_StartsBuild(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/onboarding", validForm())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	agentID, _ := body["agent_id"].(string)
	require.True(t, identity.IsValidAgentID(agentID))
	assert.Equal(t, "/api/agents/"+agentID, body["agent_url"])

	resp, body = env.do(t, http.MethodGet, "/api/builds/"+agentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, agentID, body["agent_id"])
	assert.Contains(t, []interface{}{"running", "completing", "done"}, body["state"])
}

func TestSubmit_InvalidForm(t *testing.T) {
	env := newTestEnv(t, nil)

	form := validForm()
	form.FullName = "J"
	resp, body := env.do(t, http.MethodPost, "/api/onboarding", form)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_form", body["error"])
	fields, _ := body["fields"].(map[string]interface{})
	assert.Equal(t, "Name must be at least 2 characters", fields["fullName"])
	assert.Equal(t, 0, env.svc.ActiveSessions())
}

func TestSubmit_BadBody(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Post(env.server.URL+"/api/onboarding", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBuild_InvalidAndUnknownID(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/builds/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/builds/"+identity.NewAgentID(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "build_not_found", body["error"])
}

func TestBuild_Cancel(t *testing.T) {
	never := poller.CheckerFunc(func(context.Context, string) (bool, error) { return false, nil })
	env := newTestEnv(t, never)

	_, body := env.do(t, http.MethodPost, "/api/onboarding", validForm())
	agentID := body["agent_id"].(string)

	resp, _ := env.do(t, http.MethodDelete, "/api/builds/"+agentID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/builds/"+agentID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildEvents_StreamsUntilDone(t *testing.T) {
	env := newTestEnv(t, poller.CheckerFunc(func(context.Context, string) (bool, error) { return true, nil }))

	_, body := env.do(t, http.MethodPost, "/api/onboarding", validForm())
	agentID := body["agent_id"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/api/builds/"+agentID+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	var last string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if ev, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, ev)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			last = data
		}
	}
	require.NotEmpty(t, events)
	assert.Equal(t, "done", events[len(events)-1])

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(last), &snap))
	assert.Equal(t, 1.0, snap["progress"])
	result, _ := snap["result"].(map[string]interface{})
	assert.Equal(t, true, result["found"])
}

func TestBuildSocket_CloseCancels(t *testing.T) {
	never := poller.CheckerFunc(func(context.Context, string) (bool, error) { return false, nil })
	env := newTestEnv(t, never)

	_, body := env.do(t, http.MethodPost, "/api/onboarding", validForm())
	agentID := body["agent_id"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, env.server.URL+"/ws/builds/"+agentID, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &first))
	assert.Equal(t, agentID, first["agent_id"])

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"close"}`)))

	closed := false
	for !closed {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		closed = msg["type"] == "closed"
	}
	assert.True(t, closed)

	_, err = env.svc.Session(agentID)
	assert.ErrorIs(t, err, onboarding.ErrSessionNotFound)
}

func TestGetAgent(t *testing.T) {
	env := newTestEnv(t, nil)
	agentID := identity.NewAgentID()
	require.NoError(t, env.repo.CreateAgent(context.Background(), sampleRecord(agentID)))

	resp, body := env.do(t, http.MethodGet, "/api/agents/"+agentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary, _ := body["summary"].(map[string]interface{})
	assert.Equal(t, "Retail and Hospitality", summary["industries"])
	assert.Equal(t, "~1,200 employees", summary["company_size"])
	assert.Equal(t, "Jane Doe • jane@acme.test", summary["contact"])
	assert.Len(t, summary["differentiators"], 3)
	assert.NotEmpty(t, summary["narrative"])
}

func TestGetAgent_NotFoundAndFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	agentID := identity.NewAgentID()

	resp, body := env.do(t, http.MethodGet, "/api/agents/"+agentID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "agent_not_found", body["error"])
	assert.Equal(t, "/api/agents/"+agentID, body["retry_url"])

	env.repo.fail(errors.New("connection refused"))
	resp, body = env.do(t, http.MethodGet, "/api/agents/"+agentID, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "unable_to_load", body["error"])
	assert.Equal(t, "/api/agents/"+agentID, body["retry_url"])
}

func TestDraftPreviewAndSave(t *testing.T) {
	env := newTestEnv(t, nil)
	agentID := identity.NewAgentID()
	require.NoError(t, env.repo.CreateAgent(context.Background(), sampleRecord(agentID)))

	resp, body := env.do(t, http.MethodGet, "/api/agents/"+agentID+"/draft", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	draft, _ := body["draft"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Retail", "Hospitality"}, draft["icp_industries_array"])

	edited := profile.ToEditableDraft(*sampleRecord(agentID))
	edited.Industries = []string{"Healthcare"}
	edited.Geo = []string{"Denver, CO"}

	resp, body = env.do(t, http.MethodPost, "/api/agents/"+agentID+"/preview", edited)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["narrative"], "Healthcare")

	resp, body = env.do(t, http.MethodPut, "/api/agents/"+agentID, edited)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	agent, _ := body["agent"].(map[string]interface{})
	assert.Equal(t, "Healthcare", agent["icp_industries"])
	assert.Equal(t, "Denver, CO", agent["icp_geo"])

	rec, err := env.repo.GetLatestAgent(context.Background(), agentID)
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", rec.ICPIndustries)

	missing := identity.NewAgentID()
	resp, body = env.do(t, http.MethodPut, "/api/agents/"+missing, edited)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "agent_not_found", body["error"])
}

func TestOptions(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/options", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "fr-FR")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Options         domain.EditorOptions `json:"options"`
		RequiresConsent bool                 `json:"requires_consent"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.RequiresConsent)
	assert.NotEmpty(t, body.Options.Industries)
}

func TestEnrich(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/onboarding/enrich", map[string]string{"websiteUrl": "https://thelittlesugars.com/"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://instagram.com/thelittlesugars", body["instagramUrl"])
	assert.Equal(t, "company/thelittlesugars", body["suggestedLinkedin"])

	resp, body = env.do(t, http.MethodPost, "/api/onboarding/enrich", map[string]string{"websiteUrl": "thelittlesugars"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_form", body["error"])
	assert.Contains(t, body["fields"], "websiteUrl")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	env.repo.fail(errors.New("down"))
	resp, body = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}

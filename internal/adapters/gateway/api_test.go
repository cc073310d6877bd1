package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILoginReturnsTokenPair(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			assert.Empty(t, r.Header.Get("Authorization"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "admin@atlas.tld", body["email"])
			assert.Equal(t, "Admin123!", body["password"])
			writeJSON(w, http.StatusOK, `{"access_token":"acc","refresh_token":"ref","token_type":"bearer"}`)
		case "/api/v1/auth/me":
			assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"id":1,"email":"admin@atlas.tld","name":"Admin","role":"admin","is_active":true,"created_at":"2026-01-05T09:00:00"}`)
		}
	}))
	t.Cleanup(server.Close)

	tokens := &memoryTokens{}
	api := NewAPI(newTestClient(t, server, tokens, &recordingNavigator{}))

	pair, err := api.Login(context.Background(), "admin@atlas.tld", "Admin123!")
	require.NoError(t, err)
	assert.Equal(t, "acc", pair.AccessToken)
	assert.Equal(t, "ref", pair.RefreshToken)

	require.NoError(t, tokens.ReplaceTokens(context.Background(), pair))
	user, err := api.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, 2026, user.CreatedAt.Year())
}

func TestAPILoginRejectedCredentialsIsAuthError(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		status int
		detail string
	}{
		{status: http.StatusUnauthorized, detail: "Invalid email or password"},
		{status: http.StatusForbidden, detail: "Account disabled"},
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v1/auth/refresh" {
				t.Error("login must not trigger a refresh")
			}
			writeJSON(w, tc.status, `{"detail":"`+tc.detail+`"}`)
		}))

		tokens := &memoryTokens{pair: domain.TokenPair{AccessToken: "keep", RefreshToken: "keep"}}
		nav := &recordingNavigator{}
		api := NewAPI(newTestClient(t, server, tokens, nav))

		_, err := api.Login(context.Background(), "admin@atlas.tld", "wrong")
		server.Close()

		require.ErrorIs(t, err, domain.ErrAuth)
		assert.Contains(t, err.Error(), tc.detail)
		assert.Equal(t, tc.status, domain.StatusOf(err))
		assert.Zero(t, nav.count())
		assert.Equal(t, "keep", tokens.Tokens().AccessToken)
	}
}

func TestAPIListLeadsOmitsEmptyFilterValues(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/leads", r.URL.Path)
		assert.Equal(t, "limit=500&source=instagram", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Ann","stage_id":4,"tags":["vip"],"is_returning":true,"updated_at":"2026-02-14T12:00:00Z"}]`)
	}))
	t.Cleanup(server.Close)

	api := NewAPI(newTestClient(t, server, &memoryTokens{pair: domain.TokenPair{AccessToken: "acc"}}, &recordingNavigator{}))
	leads, err := api.ListLeads(context.Background(), domain.LeadFilter{Limit: 500, Source: "instagram"})
	require.NoError(t, err)

	require.Len(t, leads, 1)
	require.NotNil(t, leads[0].StageID)
	assert.Equal(t, domain.StageID(4), *leads[0].StageID)
	assert.True(t, leads[0].IsReturning)
}

func TestAPIListCallsQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "direction=in&lead_id=9", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `[{"id":3,"lead_id":9,"direction":"in","duration":42}]`)
	}))
	t.Cleanup(server.Close)

	api := NewAPI(newTestClient(t, server, &memoryTokens{pair: domain.TokenPair{AccessToken: "acc"}}, &recordingNavigator{}))
	calls, err := api.ListCalls(context.Background(), domain.CallFilter{LeadID: 9, Direction: domain.CallInbound})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, 42, calls[0].Duration)
}

func TestAPIMutationsUseDocumentedRoutes(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		path   string
		body   map[string]any
	}
	requests := make(chan seen, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests <- seen{method: r.Method, path: r.URL.Path, body: body}

		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/v1/distribution/rules":
			writeJSON(w, http.StatusOK, `[]`)
		default:
			writeJSON(w, http.StatusOK, `{"id":1}`)
		}
	}))
	t.Cleanup(server.Close)

	api := NewAPI(newTestClient(t, server, &memoryTokens{pair: domain.TokenPair{AccessToken: "acc"}}, &recordingNavigator{}))
	ctx := context.Background()

	_, err := api.SendMessage(ctx, 5, "Hello", "greeting")
	require.NoError(t, err)
	got := <-requests
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v1/leads/5/messages/send", got.path)
	assert.Equal(t, "Hello", got.body["content"])
	assert.Equal(t, "greeting", got.body["template_name"])

	stage := domain.StageID(3)
	_, err = api.UpdateLead(ctx, 5, domain.LeadUpdate{StageID: &stage})
	require.NoError(t, err)
	got = <-requests
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/api/v1/leads/5", got.path)
	assert.Equal(t, float64(3), got.body["stage_id"])
	assert.NotContains(t, got.body, "name")

	_, err = api.ClickToCall(ctx, "+77010000000", 5)
	require.NoError(t, err)
	got = <-requests
	assert.Equal(t, "/api/v1/calls/click-to-call", got.path)
	assert.Equal(t, "+77010000000", got.body["phone"])
	assert.Equal(t, float64(5), got.body["lead_id"])

	_, err = api.ScheduleBroadcast(ctx, 2, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	got = <-requests
	assert.Equal(t, "/api/v1/broadcasts/2/schedule", got.path)
	assert.Equal(t, "2026-03-01T09:00:00Z", got.body["scheduled_at"])

	require.NoError(t, api.DeleteStage(ctx, 8))
	got = <-requests
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/api/v1/pipelines/stages/8", got.path)

	_, err = api.ReplaceDistributionRules(ctx, nil)
	require.NoError(t, err)
	got = <-requests
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/api/v1/distribution/rules", got.path)
}

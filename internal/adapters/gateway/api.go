package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

// API is the typed endpoint catalog of the CRM REST service.
type API struct {
	client *Client
}

var (
	_ ports.AuthAPI   = (*API)(nil)
	_ ports.CRMReader = (*API)(nil)
)

func NewAPI(client *Client) *API {
	return &API{client: client}
}

func (a *API) Client() *Client {
	return a.client
}

func (a *API) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := a.client.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     map[string]string{"email": email, "password": password},
		SkipAuth: true,
	}, &pair)
	if err != nil {
		var reqErr *domain.RequestError
		if errors.As(err, &reqErr) && (reqErr.Status == http.StatusUnauthorized || reqErr.Status == http.StatusForbidden) {
			return domain.TokenPair{}, fmt.Errorf("%w: %w", domain.ErrAuth, reqErr)
		}
		return domain.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return domain.TokenPair{}, errors.New("login response missing access token")
	}
	return pair, nil
}

func (a *API) CurrentUser(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := a.client.Get(ctx, "/auth/me", nil, &user)
	return user, err
}

func (a *API) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := a.client.Get(ctx, "/users", nil, &users)
	return users, err
}

func (a *API) CreateUser(ctx context.Context, in domain.UserCreate) (domain.User, error) {
	var user domain.User
	err := a.client.Post(ctx, "/users", in, &user)
	return user, err
}

func (a *API) UpdateUser(ctx context.Context, id domain.UserID, in domain.UserUpdate) (domain.User, error) {
	var user domain.User
	err := a.client.Patch(ctx, fmt.Sprintf("/users/%d", id), in, &user)
	return user, err
}

func (a *API) DeleteUser(ctx context.Context, id domain.UserID) error {
	return a.client.Delete(ctx, fmt.Sprintf("/users/%d", id), nil)
}

func (a *API) ListPipelines(ctx context.Context) ([]domain.Pipeline, error) {
	var pipelines []domain.Pipeline
	err := a.client.Get(ctx, "/pipelines", nil, &pipelines)
	return pipelines, err
}

func (a *API) CreatePipeline(ctx context.Context, in domain.PipelineCreate) (domain.Pipeline, error) {
	var pipeline domain.Pipeline
	err := a.client.Post(ctx, "/pipelines", in, &pipeline)
	return pipeline, err
}

func (a *API) CreateStage(ctx context.Context, in domain.StageCreate) (domain.Stage, error) {
	var stage domain.Stage
	err := a.client.Post(ctx, "/pipelines/stages", in, &stage)
	return stage, err
}

func (a *API) UpdateStage(ctx context.Context, id domain.StageID, in domain.StageUpdate) (domain.Stage, error) {
	var stage domain.Stage
	err := a.client.Patch(ctx, fmt.Sprintf("/pipelines/stages/%d", id), in, &stage)
	return stage, err
}

func (a *API) DeleteStage(ctx context.Context, id domain.StageID) error {
	return a.client.Delete(ctx, fmt.Sprintf("/pipelines/stages/%d", id), nil)
}

func (a *API) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := a.client.Get(ctx, "/leads", leadQuery(filter), &leads)
	return leads, err
}

func (a *API) GetLead(ctx context.Context, id domain.LeadID) (domain.Lead, error) {
	var lead domain.Lead
	err := a.client.Get(ctx, fmt.Sprintf("/leads/%d", id), nil, &lead)
	return lead, err
}

func (a *API) CreateLead(ctx context.Context, in domain.LeadCreate) (domain.Lead, error) {
	var lead domain.Lead
	err := a.client.Post(ctx, "/leads", in, &lead)
	return lead, err
}

func (a *API) UpdateLead(ctx context.Context, id domain.LeadID, in domain.LeadUpdate) (domain.Lead, error) {
	var lead domain.Lead
	err := a.client.Patch(ctx, fmt.Sprintf("/leads/%d", id), in, &lead)
	return lead, err
}

func (a *API) LeadTimeline(ctx context.Context, id domain.LeadID) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := a.client.Get(ctx, fmt.Sprintf("/leads/%d/timeline", id), nil, &activities)
	return activities, err
}

func (a *API) ListDialogs(ctx context.Context) ([]domain.Dialog, error) {
	var dialogs []domain.Dialog
	err := a.client.Get(ctx, "/dialogs", nil, &dialogs)
	return dialogs, err
}

func (a *API) ListMessages(ctx context.Context, leadID domain.LeadID) ([]domain.Message, error) {
	var messages []domain.Message
	err := a.client.Get(ctx, fmt.Sprintf("/leads/%d/messages", leadID), nil, &messages)
	return messages, err
}

type sendMessageRequest struct {
	Content      string `json:"content"`
	TemplateName string `json:"template_name,omitempty"`
}

func (a *API) SendMessage(ctx context.Context, leadID domain.LeadID, content, templateName string) (domain.Message, error) {
	var message domain.Message
	body := sendMessageRequest{Content: content, TemplateName: templateName}
	err := a.client.Post(ctx, fmt.Sprintf("/leads/%d/messages/send", leadID), body, &message)
	return message, err
}

func (a *API) ListCalls(ctx context.Context, filter domain.CallFilter) ([]domain.Call, error) {
	var calls []domain.Call
	err := a.client.Get(ctx, "/calls", callQuery(filter), &calls)
	return calls, err
}

type clickToCallRequest struct {
	Phone  string         `json:"phone"`
	LeadID *domain.LeadID `json:"lead_id,omitempty"`
}

// ClickToCall asks the telephony bridge to dial phone. The response shape is
// owned by the provider and returned as-is.
func (a *API) ClickToCall(ctx context.Context, phone string, leadID domain.LeadID) (map[string]any, error) {
	body := clickToCallRequest{Phone: phone}
	if leadID != 0 {
		body.LeadID = &leadID
	}
	result := map[string]any{}
	err := a.client.Post(ctx, "/calls/click-to-call", body, &result)
	return result, err
}

func (a *API) ListBroadcasts(ctx context.Context) ([]domain.Broadcast, error) {
	var broadcasts []domain.Broadcast
	err := a.client.Get(ctx, "/broadcasts", nil, &broadcasts)
	return broadcasts, err
}

func (a *API) CreateBroadcast(ctx context.Context, in domain.BroadcastCreate) (domain.Broadcast, error) {
	var broadcast domain.Broadcast
	err := a.client.Post(ctx, "/broadcasts", in, &broadcast)
	return broadcast, err
}

func (a *API) ScheduleBroadcast(ctx context.Context, id domain.BroadcastID, at time.Time) (domain.Broadcast, error) {
	var broadcast domain.Broadcast
	body := map[string]string{"scheduled_at": at.UTC().Format(time.RFC3339)}
	err := a.client.Post(ctx, fmt.Sprintf("/broadcasts/%d/schedule", id), body, &broadcast)
	return broadcast, err
}

func (a *API) DistributionRules(ctx context.Context) ([]domain.DistributionRule, error) {
	var rules []domain.DistributionRule
	err := a.client.Get(ctx, "/distribution/rules", nil, &rules)
	return rules, err
}

func (a *API) ReplaceDistributionRules(ctx context.Context, rules []domain.DistributionRule) ([]domain.DistributionRule, error) {
	if rules == nil {
		rules = []domain.DistributionRule{}
	}
	var saved []domain.DistributionRule
	err := a.client.Put(ctx, "/distribution/rules", rules, &saved)
	return saved, err
}

func (a *API) AnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error) {
	var summary domain.AnalyticsSummary
	err := a.client.Get(ctx, "/analytics/summary", nil, &summary)
	return summary, err
}

func leadQuery(filter domain.LeadFilter) url.Values {
	query := url.Values{}
	setInt(query, "stage_id", int64(filter.StageID))
	setInt(query, "manager_id", int64(filter.ManagerID))
	setString(query, "source", filter.Source)
	setString(query, "q", filter.Query)
	setInt(query, "limit", int64(filter.Limit))
	setInt(query, "offset", int64(filter.Offset))
	return query
}

func callQuery(filter domain.CallFilter) url.Values {
	query := url.Values{}
	setInt(query, "lead_id", int64(filter.LeadID))
	setString(query, "direction", string(filter.Direction))
	setInt(query, "limit", int64(filter.Limit))
	setInt(query, "offset", int64(filter.Offset))
	return query
}

func setString(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

func setInt(query url.Values, key string, value int64) {
	if value != 0 {
		query.Set(key, strconv.FormatInt(value, 10))
	}
}

package domain

import "encoding/json"

type (
	LeadID      int64
	StageID     int64
	PipelineID  int64
	MessageID   int64
	CallID      int64
	BroadcastID int64
	RuleID      int64
)

type Stage struct {
	ID         StageID    `json:"id"`
	PipelineID PipelineID `json:"pipeline_id"`
	Name       string     `json:"name"`
	Position   int        `json:"position"`
	Color      string     `json:"color"`
}

type Pipeline struct {
	ID        PipelineID `json:"id"`
	Name      string     `json:"name"`
	IsDefault bool       `json:"is_default"`
	Stages    []Stage    `json:"stages"`
	CreatedAt Timestamp  `json:"created_at"`
}

type PipelineCreate struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default,omitempty"`
}

type StageCreate struct {
	PipelineID PipelineID `json:"pipeline_id"`
	Name       string     `json:"name"`
	Position   int        `json:"position"`
	Color      string     `json:"color"`
}

type StageUpdate struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
	Color    *string `json:"color,omitempty"`
}

type Lead struct {
	ID             LeadID    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Source         string    `json:"source"`
	Language       string    `json:"language"`
	StageID        *StageID  `json:"stage_id"`
	ManagerID      *UserID   `json:"manager_id"`
	Tags           []string  `json:"tags"`
	IsReturning    bool      `json:"is_returning"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
	LastActivityAt Timestamp `json:"last_activity_at"`
	Stage          *Stage    `json:"stage"`
	Manager        *User     `json:"manager"`
}

type LeadCreate struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Source    string   `json:"source,omitempty"`
	Language  string   `json:"language,omitempty"`
	StageID   *StageID `json:"stage_id,omitempty"`
	ManagerID *UserID  `json:"manager_id,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type LeadUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Language    *string  `json:"language,omitempty"`
	StageID     *StageID `json:"stage_id,omitempty"`
	ManagerID   *UserID  `json:"manager_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsReturning *bool    `json:"is_returning,omitempty"`
}

// LeadFilter narrows a lead listing. Zero values are left out of the query.
type LeadFilter struct {
	StageID   StageID
	ManagerID UserID
	Source    string
	Query     string
	Limit     int
	Offset    int
}

type SenderType string

const (
	SenderClient  SenderType = "client"
	SenderManager SenderType = "manager"
	SenderSystem  SenderType = "system"
)

type Message struct {
	ID          MessageID  `json:"id"`
	LeadID      LeadID     `json:"lead_id"`
	SenderType  SenderType `json:"sender_type"`
	Type        string     `json:"type"`
	Content     string     `json:"content"`
	MediaURL    *string    `json:"media_url"`
	Status      string     `json:"status"`
	WAMessageID *string    `json:"wa_message_id"`
	CreatedAt   Timestamp  `json:"created_at"`
}

type Dialog struct {
	LeadID        LeadID    `json:"lead_id"`
	LeadName      string    `json:"lead_name"`
	LeadPhone     string    `json:"lead_phone"`
	LastMessage   *string   `json:"last_message"`
	LastMessageAt Timestamp `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
	ManagerID     *UserID   `json:"manager_id"`
	ManagerName   *string   `json:"manager_name"`
}

type CallDirection string

const (
	CallInbound  CallDirection = "in"
	CallOutbound CallDirection = "out"
)

type Call struct {
	ID           CallID        `json:"id"`
	LeadID       *LeadID       `json:"lead_id"`
	ManagerID    *UserID       `json:"manager_id"`
	Direction    CallDirection `json:"direction"`
	Duration     int           `json:"duration"`
	RecordingURL *string       `json:"recording_url"`
	Result       *string       `json:"result"`
	SipuniCallID *string       `json:"sipuni_call_id"`
	CreatedAt    Timestamp     `json:"created_at"`
	LeadName     *string       `json:"lead_name"`
	ManagerName  *string       `json:"manager_name"`
}

// CallFilter narrows a call listing. Zero values are left out of the query.
type CallFilter struct {
	LeadID    LeadID
	Direction CallDirection
	Limit     int
	Offset    int
}

type ActivityKind string

const (
	ActivityMessage     ActivityKind = "message"
	ActivityCall        ActivityKind = "call"
	ActivityNote        ActivityKind = "note"
	ActivityStageChange ActivityKind = "stage_change"
	ActivityAssignment  ActivityKind = "assignment"
)

type Activity struct {
	ID        int64           `json:"id"`
	LeadID    LeadID          `json:"lead_id"`
	Kind      ActivityKind    `json:"kind"`
	RefID     *int64          `json:"ref_id"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt Timestamp       `json:"created_at"`
}

type BroadcastStatus string

const (
	BroadcastDraft     BroadcastStatus = "draft"
	BroadcastScheduled BroadcastStatus = "scheduled"
	BroadcastSending   BroadcastStatus = "sending"
	BroadcastDone      BroadcastStatus = "done"
)

type Broadcast struct {
	ID           BroadcastID     `json:"id"`
	Name         string          `json:"name"`
	Segment      json.RawMessage `json:"segment"`
	TemplateName *string         `json:"template_name"`
	Body         string          `json:"body"`
	Status       BroadcastStatus `json:"status"`
	ScheduledAt  Timestamp       `json:"scheduled_at"`
	CreatedBy    UserID          `json:"created_by"`
	CreatedAt    Timestamp       `json:"created_at"`
}

type BroadcastCreate struct {
	Name         string         `json:"name"`
	Segment      map[string]any `json:"segment,omitempty"`
	TemplateName string         `json:"template_name,omitempty"`
	Body         string         `json:"body"`
}

type DistributionAlgorithm string

const (
	AlgorithmRoundRobin    DistributionAlgorithm = "round_robin"
	AlgorithmLoadBased     DistributionAlgorithm = "load_based"
	AlgorithmLanguageBased DistributionAlgorithm = "language_based"
	AlgorithmSourceBased   DistributionAlgorithm = "source_based"
)

type DistributionRule struct {
	ID        RuleID                `json:"id,omitempty"`
	IsActive  bool                  `json:"is_active"`
	Source    *string               `json:"source"`
	Language  *string               `json:"language"`
	Algorithm DistributionAlgorithm `json:"algorithm"`
	Priority  int                   `json:"priority"`
	ManagerID *UserID               `json:"manager_id"`
	CreatedAt Timestamp             `json:"created_at,omitzero"`
}

type AnalyticsSummary struct {
	TotalLeads             int            `json:"total_leads"`
	LeadsByStage           map[string]int `json:"leads_by_stage"`
	LeadsBySource          map[string]int `json:"leads_by_source"`
	LeadsByManager         map[string]int `json:"leads_by_manager"`
	TotalMessages          int            `json:"total_messages"`
	TotalCalls             int            `json:"total_calls"`
	ConversionRate         float64        `json:"conversion_rate"`
	AvgResponseTimeMinutes float64        `json:"avg_response_time_minutes"`
}

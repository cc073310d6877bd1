package ports

import (
	"context"

	"github.com/bnema/atlas-crm-cli/internal/domain"
)

// CRMReader loads the collections the screens display.
type CRMReader interface {
	ListPipelines(ctx context.Context) ([]domain.Pipeline, error)
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	GetLead(ctx context.Context, id domain.LeadID) (domain.Lead, error)
	ListDialogs(ctx context.Context) ([]domain.Dialog, error)
	ListMessages(ctx context.Context, leadID domain.LeadID) ([]domain.Message, error)
	ListCalls(ctx context.Context, filter domain.CallFilter) ([]domain.Call, error)
	ListBroadcasts(ctx context.Context) ([]domain.Broadcast, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DistributionRules(ctx context.Context) ([]domain.DistributionRule, error)
	AnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error)
}

// EventSubscriber hands out push event subscriptions. The returned func
// cancels the subscription and closes the channel.
type EventSubscriber interface {
	Subscribe() (<-chan domain.PushEvent, func())
}

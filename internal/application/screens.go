package application

import (
	"context"
	"fmt"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
	"golang.org/x/sync/errgroup"
)

// KanbanLeadLimit caps the leads loaded onto the board.
const KanbanLeadLimit = 500

type KanbanData struct {
	Pipelines []domain.Pipeline
	Leads     []domain.Lead
}

// ByStage groups the board's leads by stage id. Leads without a stage are
// keyed under 0.
func (d KanbanData) ByStage() map[domain.StageID][]domain.Lead {
	out := make(map[domain.StageID][]domain.Lead)
	for _, lead := range d.Leads {
		var stage domain.StageID
		if lead.StageID != nil {
			stage = *lead.StageID
		}
		out[stage] = append(out[stage], lead)
	}
	return out
}

type ChatData struct {
	Lead     domain.Lead
	Messages []domain.Message
	Calls    []domain.Call
}

func NewKanbanBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[KanbanData] {
	load := func(ctx context.Context) (KanbanData, error) {
		var data KanbanData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			pipelines, err := crm.ListPipelines(gctx)
			if err != nil {
				return fmt.Errorf("list pipelines: %w", err)
			}
			data.Pipelines = pipelines
			return nil
		})
		g.Go(func() error {
			leads, err := crm.ListLeads(gctx, domain.LeadFilter{Limit: KanbanLeadLimit})
			if err != nil {
				return fmt.Errorf("list leads: %w", err)
			}
			data.Leads = leads
			return nil
		})
		if err := g.Wait(); err != nil {
			return KanbanData{}, err
		}
		return data, nil
	}

	return NewBinding[KanbanData]("kanban", load, EventIs(domain.EventLeadUpdated), opts...)
}

func NewInboxBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[[]domain.Dialog] {
	return NewBinding[[]domain.Dialog]("inbox", crm.ListDialogs, EventIs(domain.EventMessageNew), opts...)
}

func NewChatBinding(crm ports.CRMReader, leadID domain.LeadID, opts ...BindingOption) *Binding[ChatData] {
	load := func(ctx context.Context) (ChatData, error) {
		var data ChatData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			messages, err := crm.ListMessages(gctx, leadID)
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			data.Messages = messages
			return nil
		})
		g.Go(func() error {
			lead, err := crm.GetLead(gctx, leadID)
			if err != nil {
				return fmt.Errorf("get lead: %w", err)
			}
			data.Lead = lead
			return nil
		})
		g.Go(func() error {
			calls, err := crm.ListCalls(gctx, domain.CallFilter{LeadID: leadID})
			if err != nil {
				return fmt.Errorf("list calls: %w", err)
			}
			data.Calls = calls
			return nil
		})
		if err := g.Wait(); err != nil {
			return ChatData{}, err
		}
		return data, nil
	}

	filter := AnyOf(MessageForLead(leadID), EventIs(domain.EventCallNew))
	return NewBinding[ChatData](fmt.Sprintf("chat:%d", leadID), load, filter, opts...)
}

func NewCallsBinding(crm ports.CRMReader, filter domain.CallFilter, opts ...BindingOption) *Binding[[]domain.Call] {
	load := func(ctx context.Context) ([]domain.Call, error) {
		return crm.ListCalls(ctx, filter)
	}
	return NewBinding[[]domain.Call]("calls", load, EventIs(domain.EventCallNew), opts...)
}

func NewBroadcastsBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[[]domain.Broadcast] {
	return NewBinding[[]domain.Broadcast]("broadcasts", crm.ListBroadcasts, EventIs(domain.EventBroadcastProgress), opts...)
}

func NewUsersBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[[]domain.User] {
	return NewBinding[[]domain.User]("users", crm.ListUsers, nil, opts...)
}

func NewPipelinesBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[[]domain.Pipeline] {
	return NewBinding[[]domain.Pipeline]("pipelines", crm.ListPipelines, nil, opts...)
}

func NewRulesBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[[]domain.DistributionRule] {
	return NewBinding[[]domain.DistributionRule]("rules", crm.DistributionRules, nil, opts...)
}

func NewDashboardBinding(crm ports.CRMReader, opts ...BindingOption) *Binding[domain.AnalyticsSummary] {
	return NewBinding[domain.AnalyticsSummary]("dashboard", crm.AnalyticsSummary, nil, opts...)
}

package deal

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/activity"
	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

// WebhookPayload is what the external relationship-management integration posts.
type WebhookPayload struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ContactID  string   `json:"contact_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Company    string   `json:"company"`
	Phone      string   `json:"phone"`
	Label      string   `json:"label"`
	Labels     []string `json:"labels"`
	Note       string   `json:"note"`
	EventTitle string   `json:"event_title"`
}

// Match methods, strongest first.
const (
	MatchContactID = "contact_id"
	MatchEmail     = "email"
	MatchFuzzy     = "fuzzy"
)

type WebhookResult struct {
	DealID  uint   `json:"deal_id"`
	Action  string `json:"action"` // created | updated
	MatchBy string `json:"match_by,omitempty"`
	Status  Status `json:"status"`
}

// IngestWebhook upserts a deal from an external label event.
// Matching is best effort: contact id, then exact email, then the fuzzy name+company
// heuristic, which can still produce duplicates on ambiguous input.
func (s *Service) IngestWebhook(ctx context.Context, p WebhookPayload) (*WebhookResult, error) {
	data := p.Data
	if strings.TrimSpace(data.Email) == "" && strings.TrimSpace(data.Name) == "" && strings.TrimSpace(data.ContactID) == "" {
		return nil, apperr.Validation("webhook data needs contact_id, email or name")
	}

	label := pickLabel(data.Label, data.Labels)
	mapping, known := MapLabel(label)
	event := strings.TrimSpace(p.Event)
	if event == "" {
		event = "unknown"
	}

	var res *WebhookResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deals := s.deals.WithDB(tx)
		existing, matchBy, err := s.match(ctx, deals, data)
		if err != nil {
			return err
		}

		now := s.now()
		text := webhookNote(event, label, known, data.Note)

		if existing == nil {
			d := &Deal{
				ClientName:        fallback(strings.TrimSpace(data.Name), NormalizeEmail(data.Email)),
				ClientEmail:       NormalizeEmail(data.Email),
				ClientCompany:     strings.TrimSpace(data.Company),
				ClientPhone:       strings.TrimSpace(data.Phone),
				ExternalContactID: strings.TrimSpace(data.ContactID),
				EventTitle:        strings.TrimSpace(data.EventTitle),
				Status:            mapping.Status,
				Priority:          mapping.Priority,
				Source:            "webhook",
				Notes:             s.noteLine("webhook", text) + "\n",
				LastContact:       &now,
			}
			if err := deals.Create(ctx, d); err != nil {
				return err
			}
			res = &WebhookResult{DealID: d.ID, Action: "created", Status: d.Status}
			return s.activities.WithDB(tx).Record(ctx, &activity.Activity{
				DealID: d.ID, Text: "deal created from webhook: " + text, System: true, Actor: "webhook",
			})
		}

		if matchBy == MatchFuzzy {
			s.log.Warn().
				Uint("deal_id", existing.ID).
				Str("name", data.Name).
				Str("company", data.Company).
				Str("matched_company", existing.ClientCompany).
				Msg("webhook matched deal by name and company; review for duplicates")
		}

		fields := map[string]any{"last_contact": now}
		// lost is terminal: replays and late labels only add history
		if !existing.Status.Terminal() && known {
			if mapping.Status != existing.Status {
				text += fmt.Sprintf(" (status %s -> %s)", existing.Status, mapping.Status)
			}
			fields["status"] = mapping.Status
			fields["priority"] = mapping.Priority
		}
		if existing.ExternalContactID == "" && strings.TrimSpace(data.ContactID) != "" {
			fields["external_contact_id"] = strings.TrimSpace(data.ContactID)
		}
		if err := deals.Update(ctx, existing.ID, fields); err != nil {
			return err
		}
		if err := deals.AppendNote(ctx, existing.ID, s.noteLine("webhook", text)); err != nil {
			return err
		}
		if err := s.activities.WithDB(tx).Record(ctx, &activity.Activity{
			DealID: existing.ID, Text: text, System: true, Actor: "webhook",
		}); err != nil {
			return err
		}

		status := existing.Status
		if st, ok := fields["status"].(Status); ok {
			status = st
		}
		res = &WebhookResult{DealID: existing.ID, Action: "updated", MatchBy: matchBy, Status: status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) match(ctx context.Context, deals Repository, data WebhookData) (*Deal, string, error) {
	if d, err := deals.FindByExternalID(ctx, data.ContactID); err != nil || d != nil {
		return d, MatchContactID, err
	}
	if d, err := deals.FindByEmail(ctx, data.Email); err != nil || d != nil {
		return d, MatchEmail, err
	}
	d, err := deals.FindByNameAndCompany(ctx, data.Name, data.Company)
	if err != nil || d == nil {
		return nil, "", err
	}
	return d, MatchFuzzy, nil
}

func webhookNote(event, label string, known bool, note string) string {
	text := "webhook " + event
	if label != "" {
		text += fmt.Sprintf(" label %q", label)
		if !known {
			text += " (unmapped)"
		}
	}
	if n := strings.TrimSpace(note); n != "" {
		text += ": " + n
	}
	return text
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

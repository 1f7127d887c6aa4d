package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/baharkarakas/checkin-backend/internal/metrics"
	"github.com/baharkarakas/checkin-backend/internal/models"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

type AuditEvent struct {
	Actor    *Caller
	TargetID *int64
	Action   models.Action
	Details  map[string]any
}

type AuditService struct {
	logs      repo.AuditLogs
	accounts  repo.Accounts
	emergency EmergencyAdmin
}

func NewAuditService(l repo.AuditLogs, a repo.Accounts, emergency EmergencyAdmin) *AuditService {
	return &AuditService{logs: l, accounts: a, emergency: emergency}
}

// Append writes one audit entry. It never fails from the caller's point of
// view: the check-in flow must keep working when the audit table does not.
func (s *AuditService) Append(ctx context.Context, ev AuditEvent) {
	entry := s.snapshot(ctx, ev)
	if err := s.logs.Create(ctx, &entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		slog.ErrorContext(ctx, "failed to create audit log", "action", ev.Action, "err", err)
		return
	}
	slog.DebugContext(ctx, "audit log created", "id", entry.ID, "action", entry.Action)
}

// snapshot copies actor and target name/email into the entry. Entries keep
// these values even after the accounts are renamed or deleted.
func (s *AuditService) snapshot(ctx context.Context, ev AuditEvent) models.AuditLog {
	entry := models.AuditLog{
		Action:          ev.Action,
		TargetAccountID: ev.TargetID,
	}
	if !ev.Action.Known() {
		entry.Action = models.ActionUnknown
	}
	if len(ev.Details) > 0 {
		if b, err := json.Marshal(ev.Details); err == nil {
			entry.Details = b
		} else {
			slog.WarnContext(ctx, "audit details not serializable", "action", ev.Action, "err", err)
		}
	}

	var ids []int64
	if a := ev.Actor; a != nil {
		entry.ActorAccountID = a.AccountID
		entry.ActorName = nonEmpty(a.Name)
		entry.ActorEmail = nonEmpty(a.Email)
		entry.IPAddress = nonEmpty(a.IP)
		entry.UserAgent = nonEmpty(a.UserAgent)
		if a.AccountID != nil {
			ids = append(ids, *a.AccountID)
		}
	}
	if ev.TargetID != nil {
		ids = append(ids, *ev.TargetID)
	}
	if len(ids) == 0 {
		return entry
	}

	contacts, err := s.accounts.Contacts(ctx, ids...)
	if err != nil {
		slog.WarnContext(ctx, "audit enrichment lookup failed", "action", ev.Action, "err", err)
		return entry
	}
	if entry.ActorAccountID != nil {
		if c, ok := contacts[*entry.ActorAccountID]; ok {
			entry.ActorName, entry.ActorEmail = nonEmpty(c.Name), nonEmpty(c.Email)
		}
	}
	if ev.TargetID != nil {
		if c, ok := contacts[*ev.TargetID]; ok {
			entry.TargetName, entry.TargetEmail = nonEmpty(c.Name), nonEmpty(c.Email)
		}
	}
	return entry
}

// DeleteEntry removes one audit entry. Only the emergency admin may do
// this; it exists to correct the forensic record, not to edit it.
func (s *AuditService) DeleteEntry(ctx context.Context, rawID string, requester *Caller) (int64, error) {
	if requester == nil {
		return 0, ErrUnauthorized
	}
	if !s.emergency.Matches(requester) {
		return 0, ErrForbidden
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return 0, invalid("Invalid log ID")
	}
	deleted, err := s.logs.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return 0, ErrNotFound
	}
	slog.InfoContext(ctx, "audit log deleted", "id", id, "by", requester.Identity)
	return id, nil
}

type AuditView struct {
	models.AuditLog
	Label string `json:"label"`
	Color string `json:"color"`
}

type AuditPage struct {
	Logs  []AuditView `json:"logs"`
	Total int         `json:"total"`
}

func (s *AuditService) List(ctx context.Context, f repo.AuditFilter, requester *Caller) (AuditPage, error) {
	if requester == nil {
		return AuditPage{}, ErrUnauthorized
	}
	if !s.emergency.Matches(requester) {
		return AuditPage{}, ErrForbidden
	}
	if f.Action != nil && !models.Action(*f.Action).Known() {
		return AuditPage{}, invalid("Unknown action")
	}
	logs, total, err := s.logs.List(ctx, f)
	if err != nil {
		return AuditPage{}, err
	}
	page := AuditPage{Logs: make([]AuditView, 0, len(logs)), Total: total}
	for _, l := range logs {
		st := l.Action.Style()
		page.Logs = append(page.Logs, AuditView{AuditLog: l, Label: st.Label, Color: st.Color})
	}
	return page, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Package processor classifies chest movements and drives the debt
// ledgers: removals go through the limit/ban check, additions through
// return reconciliation.
package processor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bauwatch/internal/catalog"
	"bauwatch/internal/config"
	"bauwatch/internal/directory"
	"bauwatch/internal/gateway"
	"bauwatch/internal/ingest"
	"bauwatch/internal/model"
	"bauwatch/internal/notify"
	"bauwatch/internal/store"
)

// Processor handles movement events one at a time in arrival order. All
// ledger reads and writes for one event run inside a store transaction, so
// concurrent additions cannot double-settle a record.
type Processor struct {
	db       *sql.DB
	catalog  *catalog.Catalog
	dir      *directory.Directory
	parser   *ingest.Parser
	composer *notify.Composer
	notifier notify.Notifier
	file     *config.File
	loc      *time.Location
}

// New wires a processor. The config file supplies the monitored channels
// and the alert channel; nothing is hardcoded.
func New(db *sql.DB, cat *catalog.Catalog, dir *directory.Directory, parser *ingest.Parser, notifier notify.Notifier, file *config.File) *Processor {
	loc := parser.Location
	if loc == nil {
		loc = time.Local
	}
	return &Processor{
		db:       db,
		catalog:  cat,
		dir:      dir,
		parser:   parser,
		composer: notify.NewComposer(),
		notifier: notifier,
		file:     file,
		loc:      loc,
	}
}

// Run consumes messages until the stream closes or the context is
// cancelled. Handler errors drop the event; they are logged, not retried.
func (p *Processor) Run(ctx context.Context, messages <-chan gateway.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := p.Handle(ctx, msg); err != nil {
				slog.Error("dropping movement event", "channel_id", msg.ChannelID, "error", err)
			}
		}
	}
}

// Handle processes one platform message. Messages from unmonitored
// channels or without a parseable movement are dropped silently.
func (p *Processor) Handle(ctx context.Context, msg gateway.Message) error {
	city, monitored := p.file.CityFor(msg.ChannelID)
	if !monitored {
		return nil
	}
	if len(msg.Embeds) == 0 || len(msg.Embeds[0].Fields) == 0 {
		return nil
	}

	fields := make([]ingest.Field, 0, len(msg.Embeds[0].Fields))
	for _, f := range msg.Embeds[0].Fields {
		fields = append(fields, ingest.Field{Name: f.Name, Value: f.Value})
	}

	parsed, ok := p.parser.Parse(fields)
	if !ok {
		return nil
	}

	movement := &model.Movement{
		Nickname:     parsed.Nickname,
		Fixo:         parsed.Fixo,
		ItemSlug:     p.catalog.CanonicalSlug(parsed.RawItem),
		RawItem:      parsed.RawItem,
		Quantity:     parsed.Quantity,
		Action:       parsed.Action,
		City:         city,
		OccurredAt:   parsed.OccurredAt,
		TimeFallback: parsed.TimeFallback,
	}

	// The movement is persisted before any check; if this fails, no check
	// runs and the event is dropped.
	saved, err := store.RecordMovement(ctx, p.db, movement)
	if err != nil {
		return fmt.Errorf("persisting movement: %w", err)
	}

	slog.Info("movement recorded",
		"nickname", saved.Nickname, "item", saved.ItemSlug,
		"quantity", saved.Quantity, "action", saved.Action, "city", city)

	switch saved.Action {
	case model.ActionRemoved:
		return p.checkRemoval(ctx, saved)
	case model.ActionAdded:
		return p.reconcileReturn(ctx, saved)
	}
	return nil
}

// checkRemoval applies the limit/ban check to a removal. Unauthorized
// weapon withdrawals short-circuit: no daily-limit check applies to them.
func (p *Processor) checkRemoval(ctx context.Context, m *model.Movement) error {
	policy, tracked := p.catalog.Resolve(m.RawItem)
	if !tracked {
		return nil
	}

	if policy.Category == model.CategoryWeapon && !p.dir.IsAuthorizedForWeapons(ctx, m.Nickname) {
		rank := p.dir.RankOf(ctx, m.Nickname)
		debt, err := store.OpenWeaponDebt(ctx, p.db, m.Nickname, m.ItemSlug, m.Quantity, rank, m.City, m.OccurredAt)
		if err != nil {
			return fmt.Errorf("opening weapon debt: %w", err)
		}

		slog.Warn("unauthorized weapon withdrawal",
			"nickname", m.Nickname, "item", m.ItemSlug, "rank", rank, "debt_id", debt.ID)

		alert, dm := p.composer.WeaponViolation(m.Nickname, m.RawItem, m.Quantity, rank, m.OccurredAt, m.City, debt.ID)
		p.deliver(ctx, alert, dm)
		return nil
	}

	if policy.Blocked {
		excess, err := store.OpenExcess(ctx, p.db, m.Nickname, m.ItemSlug, m.Quantity, model.ExcessBlocked, m.City, m.OccurredAt)
		if err != nil {
			return fmt.Errorf("opening blocked excess: %w", err)
		}

		slog.Warn("blocked item withdrawal",
			"nickname", m.Nickname, "item", m.ItemSlug, "quantity", m.Quantity, "excess_id", excess.ID)

		alert, dm := p.composer.Blocked(m.Nickname, m.RawItem, m.Quantity, m.OccurredAt, m.City, excess.ID)
		p.deliver(ctx, alert, dm)
		return nil
	}

	if policy.DailyLimit == nil {
		return nil
	}

	// The daily window runs from local midnight of the event's own
	// timestamp to the event, inclusive of the current removal.
	dayStart := startOfDay(m.OccurredAt.In(p.loc))
	total, err := store.WithdrawnBetween(ctx, p.db, m.Nickname, m.ItemSlug, dayStart, m.OccurredAt)
	if err != nil {
		return fmt.Errorf("computing daily aggregate: %w", err)
	}

	limit := *policy.DailyLimit
	if total <= limit {
		return nil
	}

	excess, err := store.OpenExcess(ctx, p.db, m.Nickname, m.ItemSlug, total-limit, model.ExcessPending, m.City, m.OccurredAt)
	if err != nil {
		return fmt.Errorf("opening excess: %w", err)
	}

	slog.Warn("daily limit exceeded",
		"nickname", m.Nickname, "item", m.ItemSlug,
		"withdrawn", total, "limit", limit, "excess_id", excess.ID)

	alert, dm := p.composer.OverLimit(m.Nickname, m.RawItem, total, limit, m.OccurredAt, m.City, excess.ID)
	p.deliver(ctx, alert, dm)
	return nil
}

// reconcileReturn drains an addition against outstanding debts. The weapon
// pass and the excess pass are independent; neither short-circuits the
// other. An addition that touches no record is a pure restock and produces
// no notification.
func (p *Processor) reconcileReturn(ctx context.Context, m *model.Movement) error {
	weaponSettled, err := store.DrainWeaponDebts(ctx, p.db, m.Nickname, m.ItemSlug, m.Quantity, m.OccurredAt)
	if err != nil {
		return fmt.Errorf("draining weapon debts: %w", err)
	}

	excessSettled, err := store.DrainExcesses(ctx, p.db, m.Nickname, m.ItemSlug, m.Quantity, m.OccurredAt)
	if err != nil {
		return fmt.Errorf("draining excesses: %w", err)
	}

	settlements := append(weaponSettled, excessSettled...)
	if len(settlements) == 0 {
		return nil
	}

	slog.Info("return reconciled",
		"nickname", m.Nickname, "item", m.ItemSlug,
		"quantity", m.Quantity, "records", len(settlements))

	alert, dm := p.composer.Settlement(m.Nickname, m.RawItem, settlements, m.OccurredAt, m.City)
	p.deliver(ctx, alert, dm)
	return nil
}

// deliver sends the channel alert and the DM. Delivery is best-effort: the
// ledger write already happened and is never rolled back; failures are
// logged per attempt. The channel alert is the durable audit trail, so a
// failed DM is otherwise silent.
func (p *Processor) deliver(ctx context.Context, alert notify.Alert, dm notify.DM) {
	if err := p.notifier.PostChannelAlert(ctx, p.file.AlertChannelID, alert); err != nil {
		slog.Error("failed to post channel alert",
			"channel_id", p.file.AlertChannelID, "error", err)
	}

	member, err := p.dir.FindByNickname(ctx, dm.Nickname)
	if err != nil {
		slog.Error("failed to resolve dm recipient", "nickname", dm.Nickname, "error", err)
		return
	}
	if member == nil {
		slog.Warn("no directory member matches nickname, skipping dm", "nickname", dm.Nickname)
		return
	}

	if err := p.notifier.SendDirectMessage(ctx, member.UserID, dm.Text); err != nil {
		switch {
		case gateway.IsDMBlocked(err):
			slog.Warn("recipient blocks direct messages", "nickname", dm.Nickname)
		case gateway.IsUnknownUser(err):
			slog.Warn("recipient not found on platform", "nickname", dm.Nickname)
		default:
			slog.Error("failed to send dm", "nickname", dm.Nickname, "error", err)
		}
	}
}

// startOfDay returns local midnight of t's day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

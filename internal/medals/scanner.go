package medals

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bauwatch/internal/directory"
	"bauwatch/internal/gateway"
	"bauwatch/internal/ingest"
	"bauwatch/internal/store"
)

// HistoryFetcher pages through a channel's message history, newest first.
type HistoryFetcher interface {
	FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]gateway.Message, error)
}

// onDutyMarker identifies a service-entry embed.
const onDutyMarker = "entrou em serviço"

// dutyTimeLayouts are the timestamp formats seen in on-duty embeds over
// time; the bot posting them has changed format more than once.
var dutyTimeLayouts = []string{
	ingest.TimeLayout,
	"02/01/2006 15:04:05",
	"02/01/2006 - 15:04",
	"02/01/2006",
}

// Scanner walks an on-duty channel's history and records each member's most
// recent service entry.
type Scanner struct {
	db      *sql.DB
	dir     *directory.Directory
	fetcher HistoryFetcher

	// BatchSize messages per page, MaxMessages total cap, Delay between
	// pages to respect platform rate limits.
	BatchSize   int
	MaxMessages int
	Delay       time.Duration

	Location *time.Location
}

// NewScanner creates a scanner with the default pagination settings.
func NewScanner(db *sql.DB, dir *directory.Directory, fetcher HistoryFetcher, loc *time.Location) *Scanner {
	if loc == nil {
		loc = time.Local
	}
	return &Scanner{
		db:          db,
		dir:         dir,
		fetcher:     fetcher,
		BatchSize:   100,
		MaxMessages: 3000,
		Delay:       time.Second,
		Location:    loc,
	}
}

// ScanResult summarizes one history scan.
type ScanResult struct {
	Scanned    int `json:"scanned"`
	Recognized int `json:"recognized"`
	Updated    int `json:"updated"`
	Unmatched  int `json:"unmatched"`
}

// Scan walks the channel history from newest to oldest and stores the most
// recent on-duty timestamp per member. History is read newest first, so the
// first entry seen for a member is the latest and the rest are skipped.
// Cancellation is honored between pages; a page in flight finishes.
func (s *Scanner) Scan(ctx context.Context, channelID string) (*ScanResult, error) {
	result := &ScanResult{}
	seen := make(map[string]bool)
	beforeID := ""

	for result.Scanned < s.MaxMessages {
		batch, err := s.fetcher.FetchMessages(ctx, channelID, beforeID, s.BatchSize)
		if err != nil {
			return result, fmt.Errorf("fetching on-duty history: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, msg := range batch {
			result.Scanned++
			nickname, at, ok := s.parseEntry(msg)
			if !ok {
				continue
			}
			result.Recognized++

			member, err := s.dir.FindByNickname(ctx, nickname)
			if err != nil {
				return result, fmt.Errorf("resolving on-duty nickname: %w", err)
			}
			if member == nil {
				result.Unmatched++
				slog.Debug("on-duty entry for unknown member", "nickname", nickname)
				continue
			}
			if seen[member.UserID] {
				continue
			}
			seen[member.UserID] = true

			if err := store.SetLastOnDuty(ctx, s.db, member.UserID, at); err != nil {
				return result, fmt.Errorf("recording on-duty entry: %w", err)
			}
			result.Updated++
		}

		beforeID = batch[len(batch)-1].ID
		if len(batch) < s.BatchSize {
			break
		}

		select {
		case <-ctx.Done():
			slog.Info("on-duty scan cancelled",
				"scanned", result.Scanned, "updated", result.Updated)
			return result, ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	slog.Info("on-duty scan finished",
		"scanned", result.Scanned, "recognized", result.Recognized,
		"updated", result.Updated, "unmatched", result.Unmatched)
	return result, nil
}

// parseEntry extracts the member nickname and timestamp from a service-entry
// embed. Anything else returns ok=false.
func (s *Scanner) parseEntry(msg gateway.Message) (string, time.Time, bool) {
	for _, embed := range msg.Embeds {
		if !strings.Contains(strings.ToLower(embed.Title), onDutyMarker) &&
			!strings.Contains(strings.ToLower(embed.Description), onDutyMarker) {
			continue
		}

		var nickname string
		var at time.Time
		var haveTime bool
		for _, f := range embed.Fields {
			name := strings.ToLower(f.Name)
			switch {
			case strings.Contains(name, "oficial") || strings.Contains(name, "autor"):
				nickname, _ = splitNickname(f.Value)
			case strings.Contains(name, "data"):
				at, haveTime = s.parseDutyTime(f.Value)
			}
		}
		if nickname == "" || !haveTime {
			continue
		}
		return nickname, at, true
	}
	return "", time.Time{}, false
}

// splitNickname drops a trailing "| fixo" segment if present.
func splitNickname(value string) (string, string) {
	nickname, rest, _ := strings.Cut(value, "|")
	return ingest.Clean(nickname), ingest.Clean(rest)
}

// parseDutyTime tries each known timestamp format.
func (s *Scanner) parseDutyTime(value string) (time.Time, bool) {
	cleaned := ingest.Clean(value)
	for _, layout := range dutyTimeLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, s.Location); err == nil {
			return t, true
		}
	}
	slog.Debug("unparseable on-duty timestamp", "value", cleaned)
	return time.Time{}, false
}

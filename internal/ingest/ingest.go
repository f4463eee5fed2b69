// Package ingest extracts structured chest movements from the embed-like
// messages the logging bot posts into the monitored channels.
package ingest

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bauwatch/internal/model"
)

// Field is one name/value pair of an embed.
type Field struct {
	Name  string
	Value string
}

// Movement is a parsed chest movement, before catalog resolution.
type Movement struct {
	Nickname     string
	Fixo         string
	RawItem      string
	Quantity     int
	Action       string
	OccurredAt   time.Time
	TimeFallback bool
}

// TimeLayout is the timestamp format used by the chest log embeds.
const TimeLayout = "02/01/2006 - 15:04:05"

var (
	quantityRe = regexp.MustCompile(`(?i)(.+?)\s*x(\d+)`)
	prologRe   = regexp.MustCompile(`(?i)prolog`)
	fixoRe     = regexp.MustCompile(`(?i)fixo:`)
)

// Parser turns embed fields into movements. Timestamps are interpreted in
// Location; Now supplies the fallback time for unparseable dates.
type Parser struct {
	Location *time.Location
	Now      func() time.Time
}

// NewParser creates a parser for the given timezone.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Location: loc, Now: time.Now}
}

// Parse extracts a movement from embed fields. The second return is false
// when the embed is not a parseable chest movement; that is normal
// filtering, not an error, and produces no side effects.
func (p *Parser) Parse(fields []Field) (*Movement, bool) {
	itemField, action := findItemField(fields)
	if itemField == nil {
		return nil, false
	}

	authorField := findField(fields, "autor")
	dateField := findField(fields, "data")
	if authorField == nil || dateField == nil {
		slog.Debug("chest embed missing author or date field")
		return nil, false
	}

	rawItem, quantity := splitItemQuantity(itemField.Value)
	if rawItem == "" {
		slog.Debug("chest embed with empty item name")
		return nil, false
	}

	nickname, fixo := splitAuthor(authorField.Value)
	if nickname == "" {
		slog.Debug("chest embed with unparseable author", "value", authorField.Value)
		return nil, false
	}

	occurredAt, fallback := p.parseTime(dateField.Value)

	return &Movement{
		Nickname:     nickname,
		Fixo:         fixo,
		RawItem:      rawItem,
		Quantity:     quantity,
		Action:       action,
		OccurredAt:   occurredAt,
		TimeFallback: fallback,
	}, true
}

// findItemField locates the action field by case-insensitive substring
// match on the field name and maps it to a movement action.
func findItemField(fields []Field) (*Field, string) {
	for i := range fields {
		name := strings.ToLower(fields[i].Name)
		switch {
		case strings.Contains(name, "item removido"):
			return &fields[i], model.ActionRemoved
		case strings.Contains(name, "item adicionado"):
			return &fields[i], model.ActionAdded
		}
	}
	return nil, ""
}

// findField locates a field whose name contains the given term,
// case-insensitively.
func findField(fields []Field, term string) *Field {
	for i := range fields {
		if strings.Contains(strings.ToLower(fields[i].Name), term) {
			return &fields[i]
		}
	}
	return nil
}

// splitItemQuantity parses "<item name> x<quantity>". A missing quantity
// suffix defaults to 1.
func splitItemQuantity(value string) (string, int) {
	value = Clean(value)
	if m := quantityRe.FindStringSubmatch(value); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err == nil && qty > 0 {
			return strings.TrimSpace(m[1]), qty
		}
	}
	return strings.TrimSpace(value), 1
}

// splitAuthor parses "<nickname> | <fixo>". The fixo segment defaults to
// "n/a" when absent.
func splitAuthor(value string) (string, string) {
	nickname, fixo, found := strings.Cut(value, "|")
	nickname = Clean(nickname)
	if !found {
		return nickname, "n/a"
	}
	fixo = Clean(fixo)
	if fixo == "" {
		fixo = "n/a"
	}
	return nickname, fixo
}

// parseTime parses the embed timestamp. On failure it falls back to the
// current processing time and flags the movement; the degradation is
// intentional and observable, not a swallowed error.
func (p *Parser) parseTime(value string) (time.Time, bool) {
	cleaned := Clean(value)
	t, err := time.ParseInLocation(TimeLayout, cleaned, p.Location)
	if err != nil {
		slog.Warn("unparseable chest log timestamp, using processing time",
			"value", cleaned, "error", err)
		return p.Now(), true
	}
	return t, false
}

// Clean strips the markdown wrapping and boilerplate the logging bot puts
// around field values.
func Clean(value string) string {
	s := strings.NewReplacer(
		"```", "",
		"`", "",
		"\n", "",
		"\u200b", "",
	).Replace(value)
	s = prologRe.ReplaceAllString(s, "")
	s = fixoRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Package notify composes channel alerts and direct messages from ledger
// state transitions. Composition is pure; delivery goes through the
// Notifier interface and never touches platform transport types.
package notify

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"bauwatch/internal/store"
)

// Alert colors by severity.
const (
	ColorOverLimit  = 0xFF4444
	ColorWeapon     = 0xCC0000
	ColorBlocked    = 0xFF8C00
	ColorSettlement = 0x44FF44
)

const alertTitle = "📦 CONTROLE DO BAÚ"

const timeLayout = "02/01/2006 - 15:04:05"

// AlertField is one name/value pair of a channel alert.
type AlertField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Alert is a structured channel notification.
type Alert struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []AlertField `json:"fields"`
}

// DM is a direct message to the affected user, referenced by nickname. The
// delivery layer resolves the nickname to a platform user.
type DM struct {
	Nickname string
	Text     string
}

// Notifier is the delivery boundary. Implementations post to the platform;
// failures are the caller's to log and never roll back ledger state.
type Notifier interface {
	PostChannelAlert(ctx context.Context, channelID string, alert Alert) error
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// settledTemplates is the approved set of congratulatory lines for a full
// settlement.
var settledTemplates = []string{
	"Obrigado por devolver os itens! Pendência quitada. ✅",
	"Devolução registrada, tudo certo por aqui. 🤝",
	"Pendência encerrada. Agradecemos a colaboração! 🎉",
}

// Composer builds notification payloads. Pick selects the congratulatory
// template on full settlement; it is injectable so tests are deterministic.
type Composer struct {
	Pick func(n int) int
}

// NewComposer returns a composer with a random template choice.
func NewComposer() *Composer {
	return &Composer{Pick: rand.Intn}
}

// OverLimit composes the alert and DM for a daily-limit violation.
func (c *Composer) OverLimit(nickname, item string, total, limit int, at time.Time, city string, recordID int64) (Alert, DM) {
	excess := total - limit

	alert := Alert{
		Title:       alertTitle,
		Description: "**LIMITE DE RETIRADA EXCEDIDO**",
		Color:       ColorOverLimit,
		Fields: []AlertField{
			{Name: "Autor:", Value: nickname, Inline: true},
			{Name: "Item:", Value: item, Inline: true},
			{Name: "Retirado:", Value: fmt.Sprintf("%d (limite: %d)", total, limit), Inline: true},
			{Name: "📅 Data:", Value: at.Format(timeLayout)},
			{Name: "🏘️ Cidade:", Value: city},
			{Name: "🆔 ID da Transação:", Value: fmt.Sprintf("#%d", recordID)},
		},
	}

	dm := DM{
		Nickname: nickname,
		Text: fmt.Sprintf(
			"⚠️ **Limite Diário Ultrapassado**\n\n"+
				"Você retirou **%dx %s** hoje.\n"+
				"O limite diário é de **%d** unidades.\n"+
				"**Excesso:** %d unidades\n\n"+
				"🆔 **ID da Transação:** #%d\n\n"+
				"Por favor, devolva o excesso ou entre em contato com a corregedoria informando o ID da transação.\n"+
				"Quando devolver, será enviada uma confirmação automática.",
			total, item, limit, excess, recordID),
	}

	return alert, dm
}

// Blocked composes the alert and DM for a removal of a blanket-banned item.
func (c *Composer) Blocked(nickname, item string, quantity int, at time.Time, city string, recordID int64) (Alert, DM) {
	alert := Alert{
		Title:       alertTitle,
		Description: "**RETIRADA DE ITEM BLOQUEADO**",
		Color:       ColorBlocked,
		Fields: []AlertField{
			{Name: "Autor:", Value: nickname, Inline: true},
			{Name: "Item:", Value: item, Inline: true},
			{Name: "Quantidade:", Value: fmt.Sprintf("%d", quantity), Inline: true},
			{Name: "📅 Data:", Value: at.Format(timeLayout)},
			{Name: "🏘️ Cidade:", Value: city},
			{Name: "🆔 ID da Transação:", Value: fmt.Sprintf("#%d", recordID)},
		},
	}

	dm := DM{
		Nickname: nickname,
		Text: fmt.Sprintf(
			"🚫 **Item Bloqueado Retirado**\n\n"+
				"O item **%s** não pode ser retirado do baú.\n"+
				"Você retirou **%d** unidade(s); devolva a quantidade integral.\n\n"+
				"🆔 **ID da Transação:** #%d",
			item, quantity, recordID),
	}

	return alert, dm
}

// WeaponViolation composes the alert and DM for an unauthorized weapon
// withdrawal.
func (c *Composer) WeaponViolation(nickname, item string, quantity int, rank string, at time.Time, city string, recordID int64) (Alert, DM) {
	if rank == "" {
		rank = "sem patente"
	}

	alert := Alert{
		Title:       alertTitle,
		Description: "**RETIRADA DE ARMA NÃO AUTORIZADA**",
		Color:       ColorWeapon,
		Fields: []AlertField{
			{Name: "Autor:", Value: nickname, Inline: true},
			{Name: "Patente:", Value: rank, Inline: true},
			{Name: "Item:", Value: fmt.Sprintf("%s x%d", item, quantity), Inline: true},
			{Name: "📅 Data:", Value: at.Format(timeLayout)},
			{Name: "🏘️ Cidade:", Value: city},
			{Name: "🆔 ID da Transação:", Value: fmt.Sprintf("#%d", recordID)},
		},
	}

	dm := DM{
		Nickname: nickname,
		Text: fmt.Sprintf(
			"🔫 **Retirada de Arma Não Autorizada**\n\n"+
				"Sua patente (**%s**) não autoriza a retirada de **%s**.\n"+
				"Devolva o item ao baú imediatamente.\n\n"+
				"🆔 **ID da Transação:** #%d",
			rank, item, recordID),
	}

	return alert, dm
}

// Settlement composes the consolidated alert and DM after a drain touched
// one or more debt records. Per record it reports before/after state,
// distinguishing full from partial settlement.
func (c *Composer) Settlement(nickname, item string, settlements []store.Settlement, at time.Time, city string) (Alert, DM) {
	total := 0
	allSettled := true
	var lines []string
	for _, s := range settlements {
		total += s.Applied
		if s.Remaining > 0 {
			allSettled = false
			lines = append(lines, fmt.Sprintf("#%d: %d unidade(s) devolvida(s), restam %d", s.ID, s.Applied, s.Remaining))
		} else {
			lines = append(lines, fmt.Sprintf("#%d: %d unidade(s) devolvida(s), quitado", s.ID, s.Applied))
		}
	}

	alert := Alert{
		Title:       alertTitle,
		Description: "**ITEM DEVOLVIDO**",
		Color:       ColorSettlement,
		Fields: []AlertField{
			{Name: "Autor:", Value: nickname},
			{Name: "Item:", Value: item, Inline: true},
			{Name: "Quantidade Devolvida:", Value: fmt.Sprintf("%d", total), Inline: true},
			{Name: "📅 Data Devolução:", Value: at.Format(timeLayout)},
			{Name: "🏘️ Cidade:", Value: city},
			{Name: "🆔 Transações Atualizadas:", Value: strings.Join(lines, "\n")},
		},
	}

	text := fmt.Sprintf(
		"✅ **Devolução Registrada**\n\n"+
			"Devolução de **%dx %s** aplicada às pendências:\n%s",
		total, item, strings.Join(lines, "\n"))
	if allSettled {
		text += "\n\n" + settledTemplates[c.Pick(len(settledTemplates))]
	}

	return alert, DM{Nickname: nickname, Text: text}
}

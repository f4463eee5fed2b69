// Package gateway is the platform boundary: a minimal Discord gateway and
// REST client. The core never sees these transport types; it depends on
// narrow interfaces this client satisfies.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"bauwatch/internal/directory"
	"bauwatch/internal/notify"
)

const (
	defaultAPIBase    = "https://discord.com/api/v10"
	defaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

	// Gateway intents: guilds, guild members, guild messages, message content.
	identifyIntents = 1 | 2 | 512 | 32768
)

// Gateway opcodes.
const (
	opDispatch  = 0
	opHeartbeat = 1
	opIdentify  = 2
	opHello     = 10
	opAck       = 11
)

// EmbedField is one name/value pair of a message embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a structured message attachment.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// Message is a platform message as seen by the event loop.
type Message struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id"`
	AuthorID  string  `json:"-"`
	Embeds    []Embed `json:"embeds"`
}

// Client connects to the platform gateway and exposes the few REST calls
// the bot needs.
type Client struct {
	token      string
	guildID    string
	apiBase    string
	gatewayURL string
	httpc      *http.Client

	mu       sync.Mutex
	conn     *websocket.Conn
	ready    chan struct{}
	messages chan Message
	done     chan struct{}

	// Last dispatch sequence number, shared between the read loop (writer)
	// and the heartbeat loop (reader). Nil until the first sequenced payload.
	lastSeq atomic.Pointer[int64]

	botUserID string
}

// New creates a client for a bot token and guild.
func New(token, guildID string) *Client {
	return &Client{
		token:      token,
		guildID:    guildID,
		apiBase:    defaultAPIBase,
		gatewayURL: defaultGatewayURL,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		ready:      make(chan struct{}),
		messages:   make(chan Message, 64),
		done:       make(chan struct{}),
	}
}

// Messages is the stream of incoming guild messages. The bot's own messages
// are filtered out. Closed when the connection ends.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Connect dials the gateway, identifies, and starts the heartbeat and read
// loops. It returns once the websocket is established; readiness is
// signalled separately via WaitReady.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// WaitReady blocks until the gateway session is ready or the context
// expires. Callers bound the wait (tens of seconds) and treat expiry as a
// fatal startup error.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		return fmt.Errorf("gateway connection closed before ready")
	case <-ctx.Done():
		return fmt.Errorf("waiting for gateway ready: %w", ctx.Err())
	}
}

// Close tears down the gateway connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

type payload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.messages)

	var heartbeatStop chan struct{}
	defer func() {
		if heartbeatStop != nil {
			close(heartbeatStop)
		}
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			slog.Error("gateway read failed, connection closed", "error", err)
			return
		}
		if p.S != nil {
			c.lastSeq.Store(p.S)
		}

		switch p.Op {
		case opHello:
			var hello struct {
				HeartbeatInterval int `json:"heartbeat_interval"`
			}
			if err := json.Unmarshal(p.D, &hello); err != nil {
				slog.Error("unparseable gateway hello", "error", err)
				continue
			}
			heartbeatStop = make(chan struct{})
			go c.heartbeatLoop(time.Duration(hello.HeartbeatInterval)*time.Millisecond, heartbeatStop)
			if err := c.identify(); err != nil {
				slog.Error("gateway identify failed", "error", err)
			}

		case opDispatch:
			c.handleDispatch(p.T, p.D)

		case opHeartbeat:
			c.sendHeartbeat(c.lastSeq.Load())

		case opAck:
			// Heartbeat acknowledged.
		}
	}
}

func (c *Client) heartbeatLoop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sendHeartbeat(c.lastSeq.Load())
		case <-stop:
			return
		}
	}
}

func (c *Client) sendHeartbeat(seq *int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	d, _ := json.Marshal(seq)
	if err := c.conn.WriteJSON(payload{Op: opHeartbeat, D: d}); err != nil {
		slog.Error("gateway heartbeat failed", "error", err)
	}
}

func (c *Client) identify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	identify := map[string]any{
		"token":   c.token,
		"intents": identifyIntents,
		"properties": map[string]string{
			"os":      "linux",
			"browser": "bauwatch",
			"device":  "bauwatch",
		},
	}
	d, err := json.Marshal(identify)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(payload{Op: opIdentify, D: d})
}

func (c *Client) handleDispatch(event string, data json.RawMessage) {
	switch event {
	case "READY":
		var ready struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &ready); err != nil {
			slog.Error("unparseable gateway ready", "error", err)
			return
		}
		c.botUserID = ready.User.ID
		slog.Info("gateway session ready", "bot_user_id", c.botUserID)
		close(c.ready)

	case "MESSAGE_CREATE":
		var msg struct {
			ID        string  `json:"id"`
			ChannelID string  `json:"channel_id"`
			Author    struct{ ID string } `json:"author"`
			Embeds    []Embed `json:"embeds"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("unparseable message event", "error", err)
			return
		}
		if msg.Author.ID == c.botUserID {
			return
		}
		select {
		case c.messages <- Message{ID: msg.ID, ChannelID: msg.ChannelID, AuthorID: msg.Author.ID, Embeds: msg.Embeds}:
		default:
			slog.Warn("message buffer full, dropping event", "channel_id", msg.ChannelID)
		}
	}
}

// --- REST ---

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling platform api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// PostChannelAlert posts a structured alert embed to a channel.
func (c *Client) PostChannelAlert(ctx context.Context, channelID string, alert notify.Alert) error {
	embed := Embed{
		Title:       alert.Title,
		Description: alert.Description,
		Color:       alert.Color,
	}
	for _, f := range alert.Fields {
		embed.Fields = append(embed.Fields, EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	body := map[string]any{"embeds": []Embed{embed}}
	return c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", body, nil)
}

// SendDirectMessage opens (or reuses) a DM channel with a user and sends a
// text message.
func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	var dmChannel struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/users/@me/channels",
		map[string]string{"recipient_id": userID}, &dmChannel)
	if err != nil {
		return fmt.Errorf("opening dm channel: %w", err)
	}

	return c.do(ctx, http.MethodPost, "/channels/"+dmChannel.ID+"/messages",
		map[string]string{"content": text}, nil)
}

// FetchMessages returns up to limit messages from a channel, newest first,
// older than beforeID when set. Used by the history scanners.
func (c *Client) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	if beforeID != "" {
		q.Set("before", beforeID)
	}

	var raw []struct {
		ID        string  `json:"id"`
		ChannelID string  `json:"channel_id"`
		Author    struct{ ID string } `json:"author"`
		Embeds    []Embed `json:"embeds"`
	}
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID+"/messages?"+q.Encode(), nil, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, m := range raw {
		messages = append(messages, Message{ID: m.ID, ChannelID: m.ChannelID, AuthorID: m.Author.ID, Embeds: m.Embeds})
	}
	return messages, nil
}

// ListMembers returns all guild members with their role names resolved.
// Pages through the member list in batches of 1000.
func (c *Client) ListMembers(ctx context.Context) ([]directory.GuildMember, error) {
	roleNames, err := c.fetchRoleNames(ctx)
	if err != nil {
		return nil, err
	}

	var members []directory.GuildMember
	after := ""
	for {
		q := url.Values{}
		q.Set("limit", "1000")
		if after != "" {
			q.Set("after", after)
		}

		var raw []struct {
			User struct {
				ID         string `json:"id"`
				Username   string `json:"username"`
				GlobalName string `json:"global_name"`
				Bot        bool   `json:"bot"`
			} `json:"user"`
			Nick     string     `json:"nick"`
			Roles    []string   `json:"roles"`
			JoinedAt *time.Time `json:"joined_at"`
		}
		err := c.do(ctx, http.MethodGet, "/guilds/"+c.guildID+"/members?"+q.Encode(), nil, &raw)
		if err != nil {
			return nil, fmt.Errorf("listing guild members: %w", err)
		}
		if len(raw) == 0 {
			break
		}

		for _, m := range raw {
			nickname := m.Nick
			if nickname == "" {
				nickname = m.User.GlobalName
			}
			if nickname == "" {
				nickname = m.User.Username
			}

			names := make([]string, 0, len(m.Roles))
			for _, roleID := range m.Roles {
				if name, ok := roleNames[roleID]; ok {
					names = append(names, name)
				}
			}

			members = append(members, directory.GuildMember{
				UserID:    m.User.ID,
				Nickname:  nickname,
				RoleNames: names,
				JoinedAt:  m.JoinedAt,
				Bot:       m.User.Bot,
			})
			after = m.User.ID
		}

		if len(raw) < 1000 {
			break
		}
	}

	return members, nil
}

func (c *Client) fetchRoleNames(ctx context.Context) (map[string]string, error) {
	var roles []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/guilds/"+c.guildID+"/roles", nil, &roles); err != nil {
		return nil, fmt.Errorf("fetching guild roles: %w", err)
	}

	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	return names, nil
}

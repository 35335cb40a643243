// Package gateway maintains the websocket connection to the Discord gateway:
// identify/heartbeat/resume, an in-memory state cache (guilds, channels,
// voice presence), and a feed of voice-presence notifications delivered to a
// handler. Each notification is dispatched on its own goroutine; ordering
// across notifications is not guaranteed.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/voicesmith/discordapi"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// Intents: GUILDS | GUILD_VOICE_STATES.
const intents = (1 << 0) | (1 << 7)

// VoiceUpdate is one voice-presence notification: the user moved from
// PrevChannelID (zero if they were not in voice) to NewChannelID (zero if
// they disconnected).
type VoiceUpdate struct {
	GuildID       discordapi.Snowflake
	UserID        discordapi.Snowflake
	PrevChannelID discordapi.Snowflake
	NewChannelID  discordapi.Snowflake
	Member        *discordapi.Member
}

// Handler consumes voice-presence notifications.
type Handler func(ctx context.Context, ev VoiceUpdate)

// Session owns one logical gateway connection (reconnecting across drops)
// plus the REST client, and exposes both to the rest of the service.
type Session struct {
	Rest  *discordapi.Client
	State *State

	// OnVoiceUpdate is invoked for every voice-presence notification.
	// It must be set before Run.
	OnVoiceUpdate Handler

	// GatewayURL overrides gateway endpoint discovery (tests).
	GatewayURL string

	mu        sync.Mutex // guards writes to conn
	conn      *websocket.Conn
	seq       int64
	sessionID string
	resumeURL string

	readyOnce sync.Once
	ready     chan struct{}

	connected bool
	connMu    sync.RWMutex
}

func NewSession(rest *discordapi.Client) *Session {
	return &Session{
		Rest:  rest,
		State: NewState(),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first READY dispatch has been processed.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Connected reports whether the gateway socket is currently up.
func (s *Session) Connected() bool {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connected
}

func (s *Session) setConnected(v bool) {
	s.connMu.Lock()
	s.connected = v
	s.connMu.Unlock()
}

type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// guildPayload is the GUILD_CREATE dispatch shape: the guild object plus the
// gateway-only channel and voice state arrays.
type guildPayload struct {
	discordapi.Guild
	Channels    []discordapi.Channel    `json:"channels"`
	VoiceStates []discordapi.VoiceState `json:"voice_states"`
}

// Run connects and serves the gateway until ctx is cancelled, reconnecting
// with backoff on failures.
func (s *Session) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.serveOnce(ctx)
		s.setConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("gateway connection lost, reconnecting",
			slog.Any("err", err),
			slog.Duration("backoff", backoff),
			slog.String("component", "gateway"))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 60*time.Second {
			backoff *= 2
		}
	}
}

func (s *Session) dialURL(ctx context.Context) (string, error) {
	if s.GatewayURL != "" {
		return s.GatewayURL, nil
	}
	if s.resumeURL != "" {
		return s.resumeURL, nil
	}
	url, err := s.Rest.GatewayURL(ctx)
	if err != nil {
		return "", fmt.Errorf("gateway endpoint discovery: %w", err)
	}
	return url, nil
}

func (s *Session) serveOnce(ctx context.Context) error {
	url, err := s.dialURL(ctx)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url+"?v=10&encoding=json", nil)
	if err != nil {
		return fmt.Errorf("gateway dial: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() { _ = conn.Close() }()

	// Close the socket when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	// First frame must be HELLO.
	var hello payload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &helloData); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	hbStop := make(chan struct{})
	defer close(hbStop)
	go s.heartbeatLoop(time.Duration(helloData.HeartbeatInterval)*time.Millisecond, hbStop)

	if s.sessionID != "" && s.seq > 0 {
		err = s.writeJSON(payload{Op: opResume, D: mustMarshal(map[string]any{
			"token":      s.Rest.Token,
			"session_id": s.sessionID,
			"seq":        s.seq,
		})})
	} else {
		err = s.identify()
	}
	if err != nil {
		return err
	}
	s.setConnected(true)

	for {
		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			return fmt.Errorf("gateway read: %w", err)
		}
		switch p.Op {
		case opDispatch:
			if p.S > 0 {
				s.seq = p.S
			}
			s.handleDispatch(ctx, p.T, p.D)
		case opHeartbeat:
			_ = s.writeJSON(payload{Op: opHeartbeat, D: mustMarshal(s.seq)})
		case opReconnect:
			return fmt.Errorf("gateway requested reconnect")
		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.D, &resumable)
			if !resumable {
				s.sessionID = ""
				s.resumeURL = ""
				s.seq = 0
			}
			return fmt.Errorf("gateway invalidated session (resumable=%v)", resumable)
		case opHeartbeatACK:
			// nothing to do
		}
	}
}

func (s *Session) identify() error {
	return s.writeJSON(payload{Op: opIdentify, D: mustMarshal(map[string]any{
		"token":   s.Rest.Token,
		"intents": intents,
		"properties": map[string]string{
			"os":      "linux",
			"browser": "voicesmith",
			"device":  "voicesmith",
		},
	})})
}

func (s *Session) heartbeatLoop(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := s.writeJSON(payload{Op: opHeartbeat, D: mustMarshal(s.seq)}); err != nil {
				return
			}
		}
	}
}

func (s *Session) writeJSON(p payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("gateway not connected")
	}
	return s.conn.WriteJSON(p)
}

func (s *Session) handleDispatch(ctx context.Context, event string, data json.RawMessage) {
	switch event {
	case "READY":
		var d struct {
			User             discordapi.User `json:"user"`
			SessionID        string          `json:"session_id"`
			ResumeGatewayURL string          `json:"resume_gateway_url"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			slog.Error("decode READY failed", slog.Any("err", err), slog.String("component", "gateway"))
			return
		}
		u := d.User
		s.State.setBotUser(&u)
		s.sessionID = d.SessionID
		s.resumeURL = d.ResumeGatewayURL
		slog.Info("gateway ready",
			slog.String("bot_user", u.Username),
			slog.String("bot_id", string(u.ID)),
			slog.String("component", "gateway"))
		s.readyOnce.Do(func() { close(s.ready) })
	case "RESUMED":
		slog.Info("gateway session resumed", slog.String("component", "gateway"))
	case "GUILD_CREATE":
		var g guildPayload
		if err := json.Unmarshal(data, &g); err != nil {
			slog.Error("decode GUILD_CREATE failed", slog.Any("err", err), slog.String("component", "gateway"))
			return
		}
		s.State.putGuild(g)
	case "GUILD_UPDATE":
		var g discordapi.Guild
		if err := json.Unmarshal(data, &g); err == nil {
			s.State.updateGuild(g)
		}
	case "GUILD_DELETE":
		var g struct {
			ID discordapi.Snowflake `json:"id"`
		}
		if err := json.Unmarshal(data, &g); err == nil {
			s.State.removeGuild(g.ID)
		}
	case "CHANNEL_CREATE", "CHANNEL_UPDATE":
		var ch discordapi.Channel
		if err := json.Unmarshal(data, &ch); err == nil {
			s.State.putChannel(ch)
		}
	case "CHANNEL_DELETE":
		var ch discordapi.Channel
		if err := json.Unmarshal(data, &ch); err == nil {
			s.State.removeChannel(ch)
		}
	case "GUILD_ROLE_CREATE", "GUILD_ROLE_UPDATE":
		var d struct {
			GuildID discordapi.Snowflake `json:"guild_id"`
			Role    discordapi.Role      `json:"role"`
		}
		if err := json.Unmarshal(data, &d); err == nil {
			s.State.putRole(d.GuildID, d.Role)
		}
	case "GUILD_ROLE_DELETE":
		var d struct {
			GuildID discordapi.Snowflake `json:"guild_id"`
			RoleID  discordapi.Snowflake `json:"role_id"`
		}
		if err := json.Unmarshal(data, &d); err == nil {
			s.State.removeRole(d.GuildID, d.RoleID)
		}
	case "VOICE_STATE_UPDATE":
		var vs discordapi.VoiceState
		if err := json.Unmarshal(data, &vs); err != nil {
			slog.Error("decode VOICE_STATE_UPDATE failed", slog.Any("err", err), slog.String("component", "gateway"))
			return
		}
		prev := s.State.applyVoiceState(vs)
		if s.OnVoiceUpdate == nil {
			return
		}
		ev := VoiceUpdate{
			GuildID:       vs.GuildID,
			UserID:        vs.UserID,
			PrevChannelID: prev,
			NewChannelID:  vs.ChannelID,
			Member:        vs.Member,
		}
		// Each notification is an independent unit of work; they may
		// interleave arbitrarily across users.
		go s.OnVoiceUpdate(ctx, ev)
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Package testutil provides an httptest-backed mock of the Discord REST API
// for client and integration tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockDiscordServer creates a test server that mocks Discord REST API responses.
type MockDiscordServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockDiscordServer creates a new mock Discord API server. Handlers are
// keyed by "METHOD /path".
func NewMockDiscordServer(t *testing.T) *MockDiscordServer {
	t.Helper()
	m := &MockDiscordServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockCurrentUser adds a handler for the /users/@me endpoint.
func (m *MockDiscordServer) MockCurrentUser(id, username string) {
	m.Handlers["GET /users/@me"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "username": username, "bot": true})
	}
}

// MockGuildMember adds a handler for a guild member lookup.
func (m *MockDiscordServer) MockGuildMember(guildID, userID, nick, username string, roles []string) {
	m.Handlers["GET /guilds/"+guildID+"/members/"+userID] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": userID, "username": username},
			"nick":  nick,
			"roles": roles,
		})
	}
}

// MockCreateChannel adds a handler for the guild channel create endpoint,
// echoing the requested name back with the given new channel id.
func (m *MockDiscordServer) MockCreateChannel(guildID, newChannelID string) {
	m.Handlers["POST /guilds/"+guildID+"/channels"] = func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":        newChannelID,
			"guild_id":  guildID,
			"type":      body["type"],
			"name":      body["name"],
			"parent_id": body["parent_id"],
		})
	}
}

// MockDeleteChannel adds a handler for a channel delete, returning the given
// status code.
func (m *MockDiscordServer) MockDeleteChannel(channelID string, status int) {
	m.Handlers["DELETE /channels/"+channelID] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// MockMoveMember adds a handler for the member-move PATCH.
func (m *MockDiscordServer) MockMoveMember(guildID, userID string, status int) {
	m.Handlers["PATCH /guilds/"+guildID+"/members/"+userID] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// MockGuildChannels adds a handler for the guild channel listing.
func (m *MockDiscordServer) MockGuildChannels(guildID string, channels []map[string]any) {
	m.Handlers["GET /guilds/"+guildID+"/channels"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(channels)
	}
}

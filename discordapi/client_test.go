package discordapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/testutil"
)

func newClient(m *testutil.MockDiscordServer) *discordapi.Client {
	return &discordapi.Client{Token: "test-token", BaseURL: m.URL}
}

func TestCurrentUserSendsBotAuth(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	var gotAuth string
	m.Handlers["GET /users/@me"] = func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "bot-1", "username": "voicesmith", "bot": true})
	}

	u, err := newClient(m).CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.ID != "bot-1" || !u.Bot {
		t.Errorf("user = %+v", u)
	}
	if gotAuth != "Bot test-token" {
		t.Errorf("Authorization = %q, want bot-token scheme", gotAuth)
	}
}

func TestCreateGuildChannelPayload(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	var captured map[string]any
	m.Handlers["POST /guilds/g-1/channels"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ch-new", "guild_id": "g-1", "type": 2, "name": captured["name"]})
	}

	ch, err := newClient(m).CreateGuildChannel(context.Background(), "g-1", discordapi.CreateChannelParams{
		Name:     "Alice's Channel",
		Type:     discordapi.ChannelTypeGuildVoice,
		ParentID: "cat-1",
		PermissionOverwrites: []discordapi.Overwrite{
			{ID: "g-1", Type: discordapi.OverwriteTypeRole, Deny: discordapi.PermissionConnect},
			{ID: "u-1", Type: discordapi.OverwriteTypeMember, Allow: discordapi.PermissionConnect | discordapi.PermissionMoveMembers},
		},
	})
	if err != nil {
		t.Fatalf("CreateGuildChannel: %v", err)
	}
	if ch.ID != "ch-new" {
		t.Errorf("channel id = %q", ch.ID)
	}

	if captured["name"] != "Alice's Channel" || captured["parent_id"] != "cat-1" {
		t.Errorf("payload = %+v", captured)
	}
	ows, ok := captured["permission_overwrites"].([]any)
	if !ok || len(ows) != 2 {
		t.Fatalf("permission_overwrites = %v", captured["permission_overwrites"])
	}
	// Permission bitsets go over the wire as decimal strings.
	first := ows[0].(map[string]any)
	if deny, ok := first["deny"].(string); !ok || deny != "1048576" {
		t.Errorf("deny serialized as %v (%T), want decimal string", first["deny"], first["deny"])
	}
}

func TestAPIErrorMapping(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	m.Handlers["DELETE /channels/ch-1"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Missing Permissions", "code": 50013}`))
	}

	err := newClient(m).DeleteChannel(context.Background(), "ch-1")
	var apiErr *discordapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.Status)
	}
}

func TestDeleteChannelNoContent(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	m.MockDeleteChannel("ch-1", http.StatusNoContent)

	if err := newClient(m).DeleteChannel(context.Background(), "ch-1"); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
}

func TestMoveMemberBody(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	var captured map[string]any
	m.Handlers["PATCH /guilds/g-1/members/u-1"] = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusNoContent)
	}

	if err := newClient(m).MoveMember(context.Background(), "g-1", "u-1", "ch-2"); err != nil {
		t.Fatalf("MoveMember: %v", err)
	}
	if captured["channel_id"] != "ch-2" {
		t.Errorf("body = %+v, want channel_id ch-2", captured)
	}
}

func TestGuildMember(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	m.MockGuildMember("g-1", "u-1", "Alice", "alice", []string{"r-1"})

	member, err := newClient(m).GuildMember(context.Background(), "g-1", "u-1")
	if err != nil {
		t.Fatalf("GuildMember: %v", err)
	}
	if member.DisplayName() != "Alice" {
		t.Errorf("DisplayName = %q", member.DisplayName())
	}
	if len(member.Roles) != 1 || member.Roles[0] != "r-1" {
		t.Errorf("roles = %v", member.Roles)
	}
}

func TestGatewayURL(t *testing.T) {
	m := testutil.NewMockDiscordServer(t)
	m.Handlers["GET /gateway/bot"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"url": "wss://gateway.example"})
	}

	url, err := newClient(m).GatewayURL(context.Background())
	if err != nil {
		t.Fatalf("GatewayURL: %v", err)
	}
	if url != "wss://gateway.example" {
		t.Errorf("url = %q", url)
	}
}

// Package discordapi contains minimal helpers to interact with the Discord
// REST API for channel management and member relocation, using a bot token.
package discordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Client provides the handful of REST calls the service needs. BaseURL and
// HTTPClient are overridable for tests.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api status %d: %s", e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(snippet)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CurrentUser returns the bot's own user object.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GuildMember fetches one member of a guild.
func (c *Client) GuildMember(ctx context.Context, guildID, userID Snowflake) (*Member, error) {
	var m Member
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetChannel fetches a single channel.
func (c *Client) GetChannel(ctx context.Context, channelID Snowflake) (*Channel, error) {
	var ch Channel
	if err := c.do(ctx, http.MethodGet, "/channels/"+string(channelID), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GuildChannels lists all channels of a guild.
func (c *Client) GuildChannels(ctx context.Context, guildID Snowflake) ([]Channel, error) {
	var chs []Channel
	path := fmt.Sprintf("/guilds/%s/channels", guildID)
	if err := c.do(ctx, http.MethodGet, path, nil, &chs); err != nil {
		return nil, err
	}
	return chs, nil
}

// CreateGuildChannel creates a channel, permission overwrites included, in
// one call.
func (c *Client) CreateGuildChannel(ctx context.Context, guildID Snowflake, params CreateChannelParams) (*Channel, error) {
	var ch Channel
	path := fmt.Sprintf("/guilds/%s/channels", guildID)
	if err := c.do(ctx, http.MethodPost, path, params, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// DeleteChannel deletes a channel by id.
func (c *Client) DeleteChannel(ctx context.Context, channelID Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+string(channelID), nil, nil)
}

// MoveMember relocates a member's voice session into the given channel. The
// member must already be connected to voice in the guild.
func (c *Client) MoveMember(ctx context.Context, guildID, userID, channelID Snowflake) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	body := struct {
		ChannelID Snowflake `json:"channel_id"`
	}{channelID}
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// EditChannelPermissions upserts a single permission overwrite on a channel.
func (c *Client) EditChannelPermissions(ctx context.Context, channelID Snowflake, ow Overwrite) error {
	path := fmt.Sprintf("/channels/%s/permissions/%s", channelID, ow.ID)
	body := struct {
		Type  int         `json:"type"`
		Allow Permissions `json:"allow"`
		Deny  Permissions `json:"deny"`
	}{ow.Type, ow.Allow, ow.Deny}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// GatewayURL asks the platform for the websocket gateway endpoint.
func (c *Client) GatewayURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/gateway/bot", nil, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("gateway url missing in response")
	}
	return out.URL, nil
}

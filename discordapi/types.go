package discordapi

import (
	"fmt"
	"strconv"
)

// Snowflake is a Discord entity id. The zero value means "no id".
type Snowflake string

func (s Snowflake) IsZero() bool { return s == "" }

func (s Snowflake) String() string { return string(s) }

// ParseSnowflake validates that s is a well-formed snowflake (a decimal
// uint64). Used for ids coming from configuration rather than the API.
func ParseSnowflake(s string) (Snowflake, error) {
	if s == "" {
		return "", fmt.Errorf("empty snowflake")
	}
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return "", fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return Snowflake(s), nil
}

// Permissions is a Discord permission bitset. The API serializes it as a
// decimal string, not a JSON number.
type Permissions uint64

func (p Permissions) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(p), 10))), nil
}

func (p *Permissions) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		// Older payloads occasionally carry a bare number.
		s = string(b)
	}
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid permissions value %q: %w", s, err)
	}
	*p = Permissions(v)
	return nil
}

func (p Permissions) Has(bits Permissions) bool { return p&bits == bits }

// Channel types we care about.
const (
	ChannelTypeGuildVoice    = 2
	ChannelTypeGuildCategory = 4
)

// Overwrite subject kinds.
const (
	OverwriteTypeRole   = 0
	OverwriteTypeMember = 1
)

// Overwrite is a per-role or per-member permission overwrite on a channel.
type Overwrite struct {
	ID    Snowflake   `json:"id"`
	Type  int         `json:"type"`
	Allow Permissions `json:"allow"`
	Deny  Permissions `json:"deny"`
}

// Channel is the subset of the channel object the service reads.
type Channel struct {
	ID                   Snowflake   `json:"id"`
	GuildID              Snowflake   `json:"guild_id,omitempty"`
	Type                 int         `json:"type"`
	Name                 string      `json:"name,omitempty"`
	ParentID             Snowflake   `json:"parent_id,omitempty"`
	PermissionOverwrites []Overwrite `json:"permission_overwrites,omitempty"`
}

// Role is the subset of the role object needed for permission math.
type Role struct {
	ID          Snowflake   `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

// User is the subset of the user object the service reads.
type User struct {
	ID         Snowflake `json:"id"`
	Username   string    `json:"username"`
	GlobalName string    `json:"global_name,omitempty"`
	Bot        bool      `json:"bot,omitempty"`
}

// Member is a guild member. User may be absent on some gateway payloads.
type Member struct {
	User  *User       `json:"user,omitempty"`
	Nick  string      `json:"nick,omitempty"`
	Roles []Snowflake `json:"roles"`
}

// DisplayName resolves the name shown for the member in the guild:
// nickname, then global display name, then account username.
func (m *Member) DisplayName() string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName
		}
		return m.User.Username
	}
	return ""
}

// Guild is the subset of the guild object needed for permission math and
// channel placement.
type Guild struct {
	ID      Snowflake `json:"id"`
	Name    string    `json:"name"`
	OwnerID Snowflake `json:"owner_id"`
	Roles   []Role    `json:"roles"`
}

// VoiceState describes one user's voice presence. ChannelID empty means the
// user is not in voice.
type VoiceState struct {
	GuildID   Snowflake `json:"guild_id,omitempty"`
	ChannelID Snowflake `json:"channel_id,omitempty"`
	UserID    Snowflake `json:"user_id"`
	Member    *Member   `json:"member,omitempty"`
}

// CreateChannelParams is the body of a guild channel create call.
type CreateChannelParams struct {
	Name                 string      `json:"name"`
	Type                 int         `json:"type"`
	ParentID             Snowflake   `json:"parent_id,omitempty"`
	PermissionOverwrites []Overwrite `json:"permission_overwrites,omitempty"`
}

package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/onnwee/voicesmith/discordapi"
)

// fakePlatform is an in-memory Platform with controllable failures, used by
// all lifecycle tests.
type fakePlatform struct {
	mu sync.Mutex

	botID     discordapi.Snowflake
	guilds    map[discordapi.Snowflake]*discordapi.Guild
	channels  map[discordapi.Snowflake]discordapi.Channel
	members   map[string]*discordapi.Member
	occupants map[discordapi.Snowflake][]discordapi.Snowflake

	createErr error
	deleteErr error
	moveErr   error

	nextID  int
	created []discordapi.CreateChannelParams
	deleted []discordapi.Snowflake
	moved   []a2b
	granted []grant

	// deletedCh receives every successful delete, for async assertions.
	deletedCh chan discordapi.Snowflake
}

type a2b struct {
	user, channel discordapi.Snowflake
}

type grant struct {
	channel   discordapi.Snowflake
	overwrite discordapi.Overwrite
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		botID:     "bot-1",
		guilds:    make(map[discordapi.Snowflake]*discordapi.Guild),
		channels:  make(map[discordapi.Snowflake]discordapi.Channel),
		members:   make(map[string]*discordapi.Member),
		occupants: make(map[discordapi.Snowflake][]discordapi.Snowflake),
		deletedCh: make(chan discordapi.Snowflake, 64),
	}
}

// addGuild registers a guild whose @everyone role carries the given
// permissions, plus a member record for the bot.
func (f *fakePlatform) addGuild(id discordapi.Snowflake, everyonePerms discordapi.Permissions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[id] = &discordapi.Guild{
		ID:      id,
		OwnerID: "guild-owner",
		Roles:   []discordapi.Role{{ID: id, Name: "@everyone", Permissions: everyonePerms}},
	}
	f.members[string(id)+"/"+string(f.botID)] = &discordapi.Member{
		User: &discordapi.User{ID: f.botID, Username: "voicesmith", Bot: true},
	}
}

func (f *fakePlatform) addChannel(ch discordapi.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = ch
}

func (f *fakePlatform) addMember(guildID, userID discordapi.Snowflake, nick, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[string(guildID)+"/"+string(userID)] = &discordapi.Member{
		User: &discordapi.User{ID: userID, Username: username},
		Nick: nick,
	}
}

func (f *fakePlatform) setOccupants(channelID discordapi.Snowflake, users ...discordapi.Snowflake) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occupants[channelID] = users
}

func (f *fakePlatform) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakePlatform) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func (f *fakePlatform) lastCreated() discordapi.CreateChannelParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

func (f *fakePlatform) movedTo() []a2b {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]a2b(nil), f.moved...)
}

func (f *fakePlatform) grants() []grant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]grant(nil), f.granted...)
}

// Platform implementation -----------------------------------------------

func (f *fakePlatform) BotUserID() discordapi.Snowflake { return f.botID }

func (f *fakePlatform) Guild(id discordapi.Snowflake) (*discordapi.Guild, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guilds[id]
	return g, ok
}

func (f *fakePlatform) Channel(id discordapi.Snowflake) (*discordapi.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, false
	}
	return &ch, true
}

func (f *fakePlatform) VoiceChannelOccupants(channelID discordapi.Snowflake) []discordapi.Snowflake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discordapi.Snowflake(nil), f.occupants[channelID]...)
}

func (f *fakePlatform) GuildMember(ctx context.Context, guildID, userID discordapi.Snowflake) (*discordapi.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[string(guildID)+"/"+string(userID)]
	if !ok {
		return nil, fmt.Errorf("member %s not found in guild %s", userID, guildID)
	}
	return m, nil
}

func (f *fakePlatform) CreateGuildChannel(ctx context.Context, guildID discordapi.Snowflake, params discordapi.CreateChannelParams) (*discordapi.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	ch := discordapi.Channel{
		ID:                   discordapi.Snowflake(fmt.Sprintf("temp-%d", f.nextID)),
		GuildID:              guildID,
		Type:                 params.Type,
		Name:                 params.Name,
		ParentID:             params.ParentID,
		PermissionOverwrites: params.PermissionOverwrites,
	}
	f.channels[ch.ID] = ch
	f.created = append(f.created, params)
	return &ch, nil
}

func (f *fakePlatform) DeleteChannel(ctx context.Context, channelID discordapi.Snowflake) error {
	f.mu.Lock()
	if f.deleteErr != nil {
		err := f.deleteErr
		f.mu.Unlock()
		return err
	}
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	f.mu.Unlock()
	select {
	case f.deletedCh <- channelID:
	default:
	}
	return nil
}

func (f *fakePlatform) MoveMember(ctx context.Context, guildID, userID, channelID discordapi.Snowflake) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moved = append(f.moved, a2b{user: userID, channel: channelID})
	return nil
}

func (f *fakePlatform) EditChannelPermissions(ctx context.Context, channelID discordapi.Snowflake, ow discordapi.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = append(f.granted, grant{channel: channelID, overwrite: ow})
	return nil
}

func (f *fakePlatform) GuildChannels(ctx context.Context, guildID discordapi.Snowflake) ([]discordapi.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []discordapi.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	return out, nil
}

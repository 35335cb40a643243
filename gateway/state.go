package gateway

import (
	"sync"

	"github.com/onnwee/voicesmith/discordapi"
)

// State is the in-memory view of guilds, channels, and voice presence built
// from gateway dispatch events. Reads may be concurrent; all mutation takes
// the exclusive lock.
type State struct {
	mu           sync.RWMutex
	botUser      *discordapi.User
	guilds       map[discordapi.Snowflake]*guildState
	channelGuild map[discordapi.Snowflake]discordapi.Snowflake
}

type guildState struct {
	guild    discordapi.Guild
	channels map[discordapi.Snowflake]discordapi.Channel
	// voice maps user id -> channel id for users currently in voice.
	voice map[discordapi.Snowflake]discordapi.Snowflake
}

func NewState() *State {
	return &State{
		guilds:       make(map[discordapi.Snowflake]*guildState),
		channelGuild: make(map[discordapi.Snowflake]discordapi.Snowflake),
	}
}

func (s *State) setBotUser(u *discordapi.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botUser = u
}

// BotUserID returns the id of the connected bot user, or the zero snowflake
// before READY has been received.
func (s *State) BotUserID() discordapi.Snowflake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.botUser == nil {
		return ""
	}
	return s.botUser.ID
}

func (s *State) putGuild(g guildPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := &guildState{
		guild:    g.Guild,
		channels: make(map[discordapi.Snowflake]discordapi.Channel, len(g.Channels)),
		voice:    make(map[discordapi.Snowflake]discordapi.Snowflake, len(g.VoiceStates)),
	}
	for _, ch := range g.Channels {
		ch.GuildID = g.Guild.ID
		gs.channels[ch.ID] = ch
		s.channelGuild[ch.ID] = g.Guild.ID
	}
	for _, vs := range g.VoiceStates {
		if !vs.ChannelID.IsZero() {
			gs.voice[vs.UserID] = vs.ChannelID
		}
	}
	s.guilds[g.Guild.ID] = gs
}

func (s *State) updateGuild(g discordapi.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gs, ok := s.guilds[g.ID]; ok {
		gs.guild = g
	}
}

func (s *State) removeGuild(id discordapi.Snowflake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gs, ok := s.guilds[id]; ok {
		for chID := range gs.channels {
			delete(s.channelGuild, chID)
		}
		delete(s.guilds, id)
	}
}

func (s *State) putChannel(ch discordapi.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.guilds[ch.GuildID]
	if !ok {
		return
	}
	gs.channels[ch.ID] = ch
	s.channelGuild[ch.ID] = ch.GuildID
}

func (s *State) removeChannel(ch discordapi.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gs, ok := s.guilds[ch.GuildID]; ok {
		delete(gs.channels, ch.ID)
	}
	delete(s.channelGuild, ch.ID)
}

func (s *State) putRole(guildID discordapi.Snowflake, r discordapi.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.guilds[guildID]
	if !ok {
		return
	}
	for i := range gs.guild.Roles {
		if gs.guild.Roles[i].ID == r.ID {
			gs.guild.Roles[i] = r
			return
		}
	}
	gs.guild.Roles = append(gs.guild.Roles, r)
}

func (s *State) removeRole(guildID, roleID discordapi.Snowflake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.guilds[guildID]
	if !ok {
		return
	}
	for i := range gs.guild.Roles {
		if gs.guild.Roles[i].ID == roleID {
			gs.guild.Roles = append(gs.guild.Roles[:i], gs.guild.Roles[i+1:]...)
			return
		}
	}
}

// applyVoiceState records a user's new voice channel and returns the channel
// the user was in before, if any.
func (s *State) applyVoiceState(vs discordapi.VoiceState) (prev discordapi.Snowflake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.guilds[vs.GuildID]
	if !ok {
		return ""
	}
	prev = gs.voice[vs.UserID]
	if vs.ChannelID.IsZero() {
		delete(gs.voice, vs.UserID)
	} else {
		gs.voice[vs.UserID] = vs.ChannelID
	}
	return prev
}

// Guild returns a copy of the cached guild object.
func (s *State) Guild(id discordapi.Snowflake) (*discordapi.Guild, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gs, ok := s.guilds[id]
	if !ok {
		return nil, false
	}
	g := gs.guild
	g.Roles = append([]discordapi.Role(nil), gs.guild.Roles...)
	return &g, true
}

// Channel returns a copy of the cached channel object.
func (s *State) Channel(id discordapi.Snowflake) (*discordapi.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guildID, ok := s.channelGuild[id]
	if !ok {
		return nil, false
	}
	gs, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	ch, ok := gs.channels[id]
	if !ok {
		return nil, false
	}
	return &ch, true
}

// VoiceChannelOccupants lists the users currently connected to a voice
// channel, according to the cache.
func (s *State) VoiceChannelOccupants(channelID discordapi.Snowflake) []discordapi.Snowflake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guildID, ok := s.channelGuild[channelID]
	if !ok {
		return nil
	}
	gs, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	var users []discordapi.Snowflake
	for user, ch := range gs.voice {
		if ch == channelID {
			users = append(users, user)
		}
	}
	return users
}

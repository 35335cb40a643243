package voice

import "github.com/onnwee/voicesmith/discordapi"

// Access-overlay policy for a new temporary channel, kept as named constants
// so the grants are auditable in one place.
//
// Default variant: the channel is private (@everyone may not connect), the
// owner can manage it and move members on it, the bot retains enough to
// relocate members and delete the channel later.
//
// Hardened variant: Move Members is withheld from the owner's own channel
// (and denied to @everyone outright); instead the owner receives a narrow
// Move Members grant scoped to the waiting-room channel, so they can pull
// waiting members in without gaining general relocation power.
const (
	everyoneDenyBase = discordapi.PermissionConnect

	ownerAllowBase = discordapi.PermissionConnect |
		discordapi.PermissionManageChannels |
		discordapi.PermissionMuteMembers |
		discordapi.PermissionDeafenMembers

	botAllow = discordapi.PermissionConnect |
		discordapi.PermissionMoveMembers |
		discordapi.PermissionManageChannels
)

// accessOverlay builds the overwrite list applied atomically with channel
// creation. The @everyone role id equals the guild id.
func accessOverlay(guildID, owner, bot discordapi.Snowflake, hardened bool) []discordapi.Overwrite {
	everyoneDeny := discordapi.Permissions(everyoneDenyBase)
	ownerAllow := discordapi.Permissions(ownerAllowBase)
	if hardened {
		everyoneDeny |= discordapi.PermissionMoveMembers
	} else {
		ownerAllow |= discordapi.PermissionMoveMembers
	}
	return []discordapi.Overwrite{
		{ID: guildID, Type: discordapi.OverwriteTypeRole, Deny: everyoneDeny},
		{ID: owner, Type: discordapi.OverwriteTypeMember, Allow: ownerAllow},
		{ID: bot, Type: discordapi.OverwriteTypeMember, Allow: botAllow},
	}
}

// waitingRoomGrant is the hardened variant's single narrow grant, applied to
// the waiting-room channel rather than the new channel.
func waitingRoomGrant(owner discordapi.Snowflake) discordapi.Overwrite {
	return discordapi.Overwrite{
		ID:    owner,
		Type:  discordapi.OverwriteTypeMember,
		Allow: discordapi.PermissionMoveMembers,
	}
}

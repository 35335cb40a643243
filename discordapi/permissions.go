package discordapi

// Permission bits (subset). Values are the platform's wire constants.
const (
	PermissionManageChannels Permissions = 1 << 4
	PermissionViewChannel    Permissions = 1 << 10
	PermissionConnect        Permissions = 1 << 20
	PermissionSpeak          Permissions = 1 << 21
	PermissionMuteMembers    Permissions = 1 << 22
	PermissionDeafenMembers  Permissions = 1 << 23
	PermissionMoveMembers    Permissions = 1 << 24
	PermissionAdministrator  Permissions = 1 << 3
)

// BasePermissions computes a member's effective guild-level permissions:
// the union of the @everyone role and every role the member holds. The guild
// owner and Administrator holders get all bits.
func BasePermissions(g *Guild, userID Snowflake, m *Member) Permissions {
	if g == nil || m == nil {
		return 0
	}
	if g.OwnerID == userID {
		return ^Permissions(0)
	}
	var perms Permissions
	byID := make(map[Snowflake]Permissions, len(g.Roles))
	for _, r := range g.Roles {
		byID[r.ID] = r.Permissions
	}
	// @everyone has the guild's id as its role id.
	perms |= byID[g.ID]
	for _, rid := range m.Roles {
		perms |= byID[rid]
	}
	if perms.Has(PermissionAdministrator) {
		return ^Permissions(0)
	}
	return perms
}

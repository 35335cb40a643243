package voice

import (
	"testing"

	"github.com/onnwee/voicesmith/discordapi"
)

func overwriteFor(t *testing.T, ows []discordapi.Overwrite, id discordapi.Snowflake) discordapi.Overwrite {
	t.Helper()
	for _, ow := range ows {
		if ow.ID == id {
			return ow
		}
	}
	t.Fatalf("no overwrite for %s", id)
	return discordapi.Overwrite{}
}

func TestAccessOverlayDefault(t *testing.T) {
	ows := accessOverlay("g-1", "owner-1", "bot-1", false)
	if len(ows) != 3 {
		t.Fatalf("got %d overwrites, want 3", len(ows))
	}

	everyone := overwriteFor(t, ows, "g-1")
	if everyone.Type != discordapi.OverwriteTypeRole {
		t.Error("@everyone overwrite must target the role with id == guild id")
	}
	if !everyone.Deny.Has(discordapi.PermissionConnect) {
		t.Error("@everyone must be denied Connect")
	}
	if everyone.Deny.Has(discordapi.PermissionMoveMembers) {
		t.Error("default variant must not deny Move Members to @everyone")
	}

	owner := overwriteFor(t, ows, "owner-1")
	if owner.Type != discordapi.OverwriteTypeMember {
		t.Error("owner overwrite must be a member overwrite")
	}
	for _, p := range []discordapi.Permissions{
		discordapi.PermissionConnect,
		discordapi.PermissionManageChannels,
		discordapi.PermissionMuteMembers,
		discordapi.PermissionDeafenMembers,
		discordapi.PermissionMoveMembers,
	} {
		if !owner.Allow.Has(p) {
			t.Errorf("owner missing permission bit %d", p)
		}
	}

	bot := overwriteFor(t, ows, "bot-1")
	for _, p := range []discordapi.Permissions{
		discordapi.PermissionConnect,
		discordapi.PermissionMoveMembers,
		discordapi.PermissionManageChannels,
	} {
		if !bot.Allow.Has(p) {
			t.Errorf("bot missing permission bit %d", p)
		}
	}
	if bot.Allow.Has(discordapi.PermissionMuteMembers) {
		t.Error("bot grant must stay minimal")
	}
}

func TestAccessOverlayHardened(t *testing.T) {
	ows := accessOverlay("g-1", "owner-1", "bot-1", true)

	everyone := overwriteFor(t, ows, "g-1")
	if !everyone.Deny.Has(discordapi.PermissionMoveMembers) {
		t.Error("hardened variant must deny Move Members to @everyone")
	}

	owner := overwriteFor(t, ows, "owner-1")
	if owner.Allow.Has(discordapi.PermissionMoveMembers) {
		t.Error("hardened variant must withhold Move Members from the owner's channel grant")
	}
	if !owner.Allow.Has(discordapi.PermissionManageChannels) {
		t.Error("owner keeps Manage Channels in the hardened variant")
	}

	bot := overwriteFor(t, ows, "bot-1")
	if !bot.Allow.Has(discordapi.PermissionMoveMembers) {
		t.Error("bot must keep Move Members to relocate owners")
	}
}

func TestWaitingRoomGrant(t *testing.T) {
	ow := waitingRoomGrant("owner-1")
	if ow.ID != "owner-1" || ow.Type != discordapi.OverwriteTypeMember {
		t.Fatalf("grant targets %+v", ow)
	}
	if ow.Allow != discordapi.PermissionMoveMembers {
		t.Errorf("grant must allow exactly Move Members, got %d", ow.Allow)
	}
	if ow.Deny != 0 {
		t.Errorf("grant must deny nothing, got %d", ow.Deny)
	}
}

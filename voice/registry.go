package voice

import (
	"sync"

	"github.com/onnwee/voicesmith/discordapi"
)

// Record is the lifecycle metadata for one tracked temporary channel. Owner
// is immutable for the record's lifetime; pending toggles between nil and a
// live countdown as the channel empties and refills.
type Record struct {
	Owner   discordapi.Snowflake
	GuildID discordapi.Snowflake
	Name    string

	pending *DeletionTask
}

// ChannelInfo is a read-only snapshot of one registry entry.
type ChannelInfo struct {
	ChannelID       discordapi.Snowflake `json:"channel_id"`
	GuildID         discordapi.Snowflake `json:"guild_id"`
	Owner           discordapi.Snowflake `json:"owner_id"`
	Name            string               `json:"name"`
	PendingDeletion bool                 `json:"pending_deletion"`
}

// Registry is the shared map from channel id to Record. A channel id is
// present iff this process created the channel and has not yet deleted it.
//
// Dispatch paths for overlapping channels run concurrently, so every
// check-then-act sequence on a record (empty check, cancel, schedule) must
// run inside Update, which holds the write lock for the whole sequence.
type Registry struct {
	mu        sync.RWMutex
	byChannel map[discordapi.Snowflake]*Record
}

func NewRegistry() *Registry {
	return &Registry{byChannel: make(map[discordapi.Snowflake]*Record)}
}

// Insert adds a record for a freshly created channel.
func (r *Registry) Insert(id discordapi.Snowflake, rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChannel[id] = rec
}

// Remove deletes the entry and returns the removed record, or nil. The
// caller is responsible for cancelling any pending task on it.
func (r *Registry) Remove(id discordapi.Snowflake) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.byChannel[id]
	delete(r.byChannel, id)
	return rec
}

// Update runs fn on the record under the write lock. Returns false if the
// channel is not tracked.
func (r *Registry) Update(id discordapi.Snowflake, fn func(*Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byChannel[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Tracked reports whether the channel has a registry entry.
func (r *Registry) Tracked(id discordapi.Snowflake) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byChannel[id]
	return ok
}

// FindByOwner returns the channel currently owned by the user, if any.
func (r *Registry) FindByOwner(owner discordapi.Snowflake) (discordapi.Snowflake, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, rec := range r.byChannel {
		if rec.Owner == owner {
			return id, true
		}
	}
	return "", false
}

// ExistsForOwner reports whether the user currently owns a tracked channel.
func (r *Registry) ExistsForOwner(owner discordapi.Snowflake) bool {
	_, ok := r.FindByOwner(owner)
	return ok
}

// Len returns the number of tracked channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byChannel)
}

// Snapshot returns a point-in-time copy of all entries.
func (r *Registry) Snapshot() []ChannelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChannelInfo, 0, len(r.byChannel))
	for id, rec := range r.byChannel {
		out = append(out, ChannelInfo{
			ChannelID:       id,
			GuildID:         rec.GuildID,
			Owner:           rec.Owner,
			Name:            rec.Name,
			PendingDeletion: rec.pending != nil,
		})
	}
	return out
}

// expunge removes the entry after a successful platform delete issued by
// task t. A pending task other than t (scheduled while the delete call was
// in flight) is cancelled so no countdown outlives the record.
func (r *Registry) expunge(id discordapi.Snowflake, t *DeletionTask) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byChannel[id]
	if !ok {
		return nil
	}
	if rec.pending != nil && rec.pending != t {
		rec.pending.Cancel()
	}
	delete(r.byChannel, id)
	return rec
}

// clearPendingIf drops the pending reference only if it still points at t,
// so a countdown scheduled after t fired is left alone.
func (r *Registry) clearPendingIf(id discordapi.Snowflake, t *DeletionTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byChannel[id]; ok && rec.pending == t {
		rec.pending = nil
	}
}

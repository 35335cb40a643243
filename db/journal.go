package db

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/onnwee/voicesmith/discordapi"
)

// Journal appends lifecycle events to the channel_events table. Write
// failures are logged and swallowed: the journal must never stall or fail a
// lifecycle operation.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal { return &Journal{db: db} }

// RecordEvent inserts one audit row.
func (j *Journal) RecordEvent(ctx context.Context, event string, channelID, guildID, ownerID discordapi.Snowflake, detail string) {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO channel_events (event, channel_id, guild_id, owner_id, detail) VALUES ($1, $2, $3, $4, $5)`,
		event, string(channelID), nullable(guildID), nullable(ownerID), detail)
	if err != nil {
		slog.Warn("journal write failed",
			slog.String("event", event),
			slog.String("channel_id", string(channelID)),
			slog.Any("err", err),
			slog.String("component", "journal"))
	}
}

func nullable(s discordapi.Snowflake) any {
	if s.IsZero() {
		return nil
	}
	return string(s)
}

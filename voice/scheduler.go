package voice

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/voicesmith/telemetry"

	"github.com/onnwee/voicesmith/discordapi"
)

// DeletionTask is one cancellable deletion countdown bound to a single
// channel. Cancel stops the timer step if it has not fired yet; it never
// interrupts a delete request already in flight.
type DeletionTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel aborts the countdown. Idempotent; a no-op once the timer fired.
func (t *DeletionTask) Cancel() { t.cancel() }

// Done is closed when the task goroutine exits, whether it deleted the
// channel, failed, or was cancelled.
func (t *DeletionTask) Done() <-chan struct{} { return t.done }

// scheduleDeletion starts a grace-period countdown for the channel. On
// expiry it deletes the channel and removes the registry entry; on delete
// failure the record stays tracked (pending cleared) so a later event or the
// reconcile sweep can re-evaluate.
//
// Callers must store the returned task as the record's pending handle under
// the registry lock, cancelling any previous one first, so at most one
// countdown is live per channel.
func (s *Service) scheduleDeletion(channelID discordapi.Snowflake, name string) *DeletionTask {
	ctx, cancel := context.WithCancel(s.taskCtx)
	t := &DeletionTask{cancel: cancel, done: make(chan struct{})}
	telemetry.DeletionsScheduled.Inc()

	go func() {
		defer close(t.done)
		timer := time.NewTimer(s.opts.GracePeriod)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// The delete call runs on its own context: cancelling the task
		// must not abort a request that has already been issued.
		dctx, dcancel := context.WithTimeout(s.taskCtx, 15*time.Second)
		defer dcancel()
		if err := s.platform.DeleteChannel(dctx, channelID); err != nil {
			slog.Error("channel delete failed, keeping record for re-evaluation",
				slog.String("channel_id", string(channelID)),
				slog.String("name", name),
				slog.Any("err", err),
				slog.String("component", "deletion"))
			telemetry.DeleteFailures.Inc()
			s.registry.clearPendingIf(channelID, t)
			s.journalEvent(dctx, "deletion_failed", channelID, "", "", err.Error())
			return
		}

		rec := s.registry.expunge(channelID, t)
		telemetry.ChannelsDeleted.Inc()
		telemetry.SetTrackedChannels(s.registry.Len())
		slog.Info("temporary channel deleted",
			slog.String("channel_id", string(channelID)),
			slog.String("name", name),
			slog.String("component", "deletion"))
		if rec != nil {
			s.journalEvent(dctx, "channel_deleted", channelID, rec.GuildID, rec.Owner, name)
		}
	}()
	return t
}

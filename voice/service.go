package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/telemetry"
)

// DefaultGracePeriod is how long an emptied channel survives before
// deletion, unless someone rejoins.
const DefaultGracePeriod = 5 * time.Second

// DefaultReconcileInterval is how often the sweep re-checks tracked
// channels against the platform.
const DefaultReconcileInterval = 5 * time.Minute

// Platform is the narrow capability surface the lifecycle needs from the
// chat platform. *gateway.Session satisfies it; tests substitute a fake.
type Platform interface {
	BotUserID() discordapi.Snowflake
	Guild(id discordapi.Snowflake) (*discordapi.Guild, bool)
	Channel(id discordapi.Snowflake) (*discordapi.Channel, bool)
	VoiceChannelOccupants(channelID discordapi.Snowflake) []discordapi.Snowflake

	GuildMember(ctx context.Context, guildID, userID discordapi.Snowflake) (*discordapi.Member, error)
	CreateGuildChannel(ctx context.Context, guildID discordapi.Snowflake, params discordapi.CreateChannelParams) (*discordapi.Channel, error)
	DeleteChannel(ctx context.Context, channelID discordapi.Snowflake) error
	MoveMember(ctx context.Context, guildID, userID, channelID discordapi.Snowflake) error
	EditChannelPermissions(ctx context.Context, channelID discordapi.Snowflake, ow discordapi.Overwrite) error
	GuildChannels(ctx context.Context, guildID discordapi.Snowflake) ([]discordapi.Channel, error)
}

// Journal receives lifecycle audit events. Implementations must be safe for
// concurrent use and must not block on failure; the lifecycle never reads
// the journal back.
type Journal interface {
	RecordEvent(ctx context.Context, event string, channelID, guildID, ownerID discordapi.Snowflake, detail string)
}

// Options configures the lifecycle service.
type Options struct {
	// CreatorChannelID is the well-known channel whose join event
	// triggers provisioning.
	CreatorChannelID discordapi.Snowflake
	// WaitingRoomID, when set, enables the hardened permission overlay:
	// owners get Move Members only as a narrow grant on this channel.
	WaitingRoomID discordapi.Snowflake
	// GracePeriod between a channel emptying and its deletion.
	GracePeriod time.Duration
	// ReconcileInterval for the periodic sweep; 0 disables it.
	ReconcileInterval time.Duration
}

// Service drives the temporary-channel lifecycle: it consumes voice-presence
// notifications and mutates the registry, scheduling and cancelling deletion
// countdowns. State is memory-resident and intentionally lost on restart.
type Service struct {
	platform Platform
	registry *Registry
	journal  Journal
	opts     Options

	// provisionMu serializes the owner-lookup/recycle/create/insert
	// sequence so concurrent joins cannot give one user two channels.
	provisionMu sync.Mutex

	// taskCtx parents deletion countdowns and the sweep so shutdown
	// stops them.
	taskCtx context.Context
}

func New(platform Platform, journal Journal, opts Options) *Service {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	telemetry.Init()
	return &Service{
		platform: platform,
		registry: NewRegistry(),
		journal:  journal,
		opts:     opts,
		taskCtx:  context.Background(),
	}
}

// Registry exposes the tracked-channel map for the HTTP status surface.
func (s *Service) Registry() *Registry { return s.registry }

// Start binds pending work to ctx and launches the reconcile sweep. It
// returns immediately.
func (s *Service) Start(ctx context.Context) {
	s.taskCtx = ctx
	if s.opts.ReconcileInterval > 0 {
		go s.runReconcileJob(ctx)
	} else {
		slog.Info("reconcile sweep disabled", slog.String("component", "reconcile"))
	}
}

func (s *Service) hardened() bool { return !s.opts.WaitingRoomID.IsZero() }

func (s *Service) journalEvent(ctx context.Context, event string, channelID, guildID, ownerID discordapi.Snowflake, detail string) {
	if s.journal == nil {
		return
	}
	s.journal.RecordEvent(ctx, event, channelID, guildID, ownerID, detail)
}

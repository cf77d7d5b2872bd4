package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/invitation"
	"github.com/MrEthical07/authflow/progress"
	"github.com/MrEthical07/authflow/remote"
	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/syncstate"
	"github.com/MrEthical07/authflow/view"
)

// Builder assembles a Flow. A Builder is single-use.
type Builder struct {
	config Config

	doc         view.Document
	auth        AuthStateProvider
	invitations InvitationClient
	codes       CodeSender
	sink        EventSink
	logger      *slog.Logger
	scheduler   Scheduler
	steps       *step.Registry

	built bool
}

// New returns a builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithDocument sets the page the flow renders into. Required.
func (b *Builder) WithDocument(doc view.Document) *Builder {
	b.doc = doc
	return b
}

// WithAuthProvider injects the authentication state holder. Without one the
// HTTP-backed provider from package remote is used.
func (b *Builder) WithAuthProvider(p AuthStateProvider) *Builder {
	b.auth = p
	return b
}

// WithInvitationClient injects the invitation collaborator.
func (b *Builder) WithInvitationClient(c InvitationClient) *Builder {
	b.invitations = c
	return b
}

// WithCodeSender injects the email code collaborator.
func (b *Builder) WithCodeSender(c CodeSender) *Builder {
	b.codes = c
	return b
}

// WithEventSink sets the sink flow events are delivered to. Events are only
// dispatched when Config.Events.Enabled is true.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithScheduler replaces the wall-clock scheduler used by the reconciler.
func (b *Builder) WithScheduler(s Scheduler) *Builder {
	b.scheduler = s
	return b
}

// WithStepRegistry replaces the step table. Config.Progress.StepsFile, when
// set, is still merged into it.
func (b *Builder) WithStepRegistry(r *step.Registry) *Builder {
	b.steps = r
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) WithEventsEnabled(enabled bool) *Builder {
	b.config.Events.Enabled = enabled
	return b
}

// Build validates the configuration and wires every component. The
// reconciler, when enabled, runs its first pass before Build returns.
func (b *Builder) Build() (*Flow, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.doc == nil {
		return nil, errors.New("document required")
	}

	steps := b.steps
	if steps == nil {
		steps = step.NewRegistry()
	}
	if cfg.Progress.StepsFile != "" {
		if err := loadSteps(steps, cfg.Progress.StepsFile); err != nil {
			return nil, err
		}
	}

	if err := checkIndicators(steps, cfg.Progress.Indicators); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	f := &Flow{
		id:      uuid.NewString(),
		cfg:     cfg,
		logger:  logger,
		doc:     b.doc,
		ids:     cfg.Elements,
		auth:    b.auth,
		codes:   b.codes,
		metrics: NewMetrics(cfg.Metrics),
	}

	invitations := b.invitations
	if b.auth == nil || b.codes == nil || (invitations == nil && cfg.Invitation.CheckRequired) {
		rc, err := remote.New(cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("remote: %w", err)
		}
		f.closers = append(f.closers, rc.Close)
		if f.auth == nil {
			f.auth = rc.Auth
		}
		if f.codes == nil {
			f.codes = rc.Codes
		}
		if invitations == nil {
			invitations = rc.Invitations
		}
	}
	if !cfg.Invitation.CheckRequired {
		invitations = ungated{}
	}

	if cfg.Events.Enabled {
		sink := b.sink
		if sink == nil {
			sink = NoOpSink{}
		}
		f.events = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    true,
			BufferSize: cfg.Events.BufferSize,
			DropIfFull: cfg.Events.DropIfFull,
		}, sink)
	}

	f.progress = progress.New(b.doc, steps, progress.Options{
		BarID:  cfg.Elements.ProgressBar,
		FillID: cfg.Elements.ProgressFill,
		Logger: logger,
	})

	f.gate = invitation.New(invitations, invitation.Deps{
		Switcher:  f,
		Progress:  f.progress,
		Document:  b.doc,
		InputID:   cfg.Elements.InvitationInput,
		ErrorID:   cfg.Elements.InvitationError,
		SubmitID:  cfg.Elements.InvitationSend,
		Logger:    logger,
		MetricInc: f.metricInc,
		ObserveLatency: func(d time.Duration) {
			f.metrics.Observe(MetricInvitationValidateLatency, d)
		},
		EmitEvent: func(ctx context.Context, eventType string, success bool, err error, metadata func() map[string]string) {
			f.emit(ctx, eventType, success, fromInvitation(err), metadata)
		},
		Metrics: invitation.Metrics{
			Required:     int(MetricInvitationRequired),
			Bypassed:     int(MetricInvitationBypassed),
			FailOpen:     int(MetricInvitationFailOpen),
			Accepted:     int(MetricInvitationAccepted),
			Rejected:     int(MetricInvitationRejected),
			NetworkError: int(MetricInvitationNetworkError),
			Stale:        int(MetricInvitationStale),
		},
		Events: invitation.Events{
			Checked:  EventInvitationChecked,
			Verified: EventInvitationVerified,
			Rejected: EventInvitationRejected,
		},
	})

	if cfg.Sync.Enabled {
		f.sync = syncstate.New(syncstate.Deps{
			Source:      f.auth,
			Document:    b.doc,
			LinksID:     cfg.Elements.Links,
			UserInfoID:  cfg.Elements.UserInfo,
			EmailID:     cfg.Elements.UserEmail,
			Scheduler:   b.scheduler,
			Interval:    cfg.Sync.Interval,
			Timeout:     cfg.Sync.Timeout,
			MaxAttempts: cfg.Sync.MaxAttempts,
			Logger:      logger,
			MetricInc:   f.metricInc,
			Metrics: syncstate.Metrics{
				Pass:            int(MetricSyncPass),
				Correction:      int(MetricSyncCorrection),
				NotReady:        int(MetricSyncNotReady),
				PollingCanceled: int(MetricSyncPollingCanceled),
			},
		})
	}

	b.built = true
	return f, nil
}

func (f *Flow) metricInc(id int) {
	f.metrics.Inc(MetricID(id))
}

func loadSteps(r *step.Registry, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("steps file: %w", err)
	}
	defer file.Close()
	if err := r.LoadYAML(file); err != nil {
		return fmt.Errorf("steps file %s: %w", path, err)
	}
	return nil
}

// checkIndicators rejects a step table whose highest rank has no indicator.
func checkIndicators(r *step.Registry, indicators int) error {
	all := r.Steps()
	if len(all) == 0 {
		return nil
	}
	last := all[len(all)-1]
	if rank, _ := r.Rank(last); rank > indicators {
		return fmt.Errorf("step %q has rank %d but only %d progress indicators", last, rank, indicators)
	}
	return nil
}

// ungated reports that no invitation is required, without a network call.
type ungated struct{}

func (ungated) Required(context.Context) (bool, error) { return false, nil }

func (ungated) Validate(context.Context, string) (invitation.ValidateResult, error) {
	return invitation.ValidateResult{}, invitation.ErrTransport
}

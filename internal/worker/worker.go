package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/agent"
	"github.com/joylabs/joy-agent/internal/backend"
	"github.com/joylabs/joy-agent/internal/convlog"
	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/profile"
	"github.com/joylabs/joy-agent/internal/prompt"
	"github.com/joylabs/joy-agent/internal/rtc"
	"github.com/joylabs/joy-agent/internal/session"
)

// Options carries the per-session tunables.
type Options struct {
	FlushThreshold  int
	EnableRetrieval bool
}

// Worker consumes realtime events and drives one dialogue flow per
// connected participant. New users start in the intake flow and hand off
// to the assistant; returning users go straight to the assistant with a
// prompt built from their stored profile.
type Worker struct {
	transport     rtc.Transport
	chat          llm.ChatService
	profiles      profile.ProfileService
	conversations convlog.ConversationService
	backend       *backend.Client
	logger        *zap.Logger
	opts          Options

	sessions map[string]*participantSession
}

// participantSession tracks one connected participant. Exactly one of
// intake/assistant is active; hand-off swaps intake out for assistant.
type participantSession struct {
	data      *session.Data
	intake    *agent.IntakeAgent
	assistant *agent.AssistantAgent
}

// New creates a worker over an established realtime transport.
func New(transport rtc.Transport, chat llm.ChatService, profiles profile.ProfileService, conversations convlog.ConversationService, backendClient *backend.Client, opts Options, logger *zap.Logger) *Worker {
	return &Worker{
		transport:     transport,
		chat:          chat,
		profiles:      profiles,
		conversations: conversations,
		backend:       backendClient,
		logger:        logger,
		opts:          opts,
		sessions:      make(map[string]*participantSession),
	}
}

// Run processes events until the context is cancelled or the transport
// closes. On shutdown every live session is flushed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.shutdown(ctx)
			return ctx.Err()
		case event, open := <-w.transport.Events():
			if !open {
				w.shutdown(ctx)
				return nil
			}
			w.handleEvent(ctx, event)
		}
	}
}

func (w *Worker) handleEvent(ctx context.Context, event rtc.Event) {
	switch event.Type {
	case rtc.EventParticipantJoined:
		w.onJoined(ctx, event)
	case rtc.EventUserTurn:
		w.onUserTurn(ctx, event)
	case rtc.EventParticipantLeft:
		w.onLeft(ctx, event)
	default:
		w.logger.Debug("Ignoring unknown event type", zap.String("type", string(event.Type)))
	}
}

func (w *Worker) onJoined(ctx context.Context, event rtc.Event) {
	data, err := session.ParseMetadata(event.Identity, event.Metadata)
	if err != nil {
		w.logger.Error("Rejecting participant with malformed metadata",
			zap.String("identity", event.Identity),
			zap.Error(err))
		return
	}

	sess := &participantSession{data: data}
	if data.IsNewUser {
		sess.intake = agent.NewIntakeAgent(data, w.chat, w.backend, w.logger)
	} else {
		sess.assistant = w.buildAssistantFromStore(ctx, data)
	}
	w.sessions[event.Identity] = sess

	greeting, err := w.greet(ctx, sess)
	if err != nil {
		w.logger.Error("Greeting failed",
			zap.String("identity", event.Identity),
			zap.Error(err))
		return
	}
	w.say(ctx, event.Identity, greeting)

	w.logger.Info("Participant joined",
		zap.String("identity", event.Identity),
		zap.Bool("is_new_user", data.IsNewUser))
}

func (w *Worker) onUserTurn(ctx context.Context, event rtc.Event) {
	sess, ok := w.sessions[event.Identity]
	if !ok {
		w.logger.Warn("Turn from unknown participant", zap.String("identity", event.Identity))
		return
	}

	var reply string
	var err error
	if sess.intake != nil {
		reply, err = sess.intake.OnUserTurn(ctx, event.Text)
	} else {
		reply, err = sess.assistant.OnConversationItem(ctx, session.Message{
			Role:    session.UserRole,
			Content: event.Text,
		})
	}
	if err != nil {
		w.logger.Error("Turn failed",
			zap.String("identity", event.Identity),
			zap.Error(err))
		return
	}
	if reply != "" {
		w.say(ctx, event.Identity, reply)
	}

	if sess.intake != nil && sess.intake.HandoffRequested() {
		w.handoff(ctx, event.Identity, sess)
	}
}

func (w *Worker) onLeft(ctx context.Context, event rtc.Event) {
	sess, ok := w.sessions[event.Identity]
	if !ok {
		return
	}
	delete(w.sessions, event.Identity)
	w.flush(ctx, event.Identity, sess)
	w.logger.Info("Participant left", zap.String("identity", event.Identity))
}

// handoff swaps the intake flow for the assistant flow. The profile is
// read back from the database; when the saved row is not visible yet the
// fields collected during intake stand in.
func (w *Worker) handoff(ctx context.Context, identity string, sess *participantSession) {
	data := sess.data

	var childProfile *prompt.Profile
	if stored, err := w.profiles.FetchChildProfile(ctx, data.DeviceID); err == nil {
		childProfile = stored.PromptFragment()
	} else if data.Name != "" || data.City != "" || len(data.Interests) > 0 || data.Age > 0 {
		w.logger.Warn("Saved profile not readable yet, using session fields",
			zap.String("identity", identity),
			zap.Error(err))
		childProfile = &prompt.Profile{
			Name:      data.Name,
			City:      data.City,
			Interests: data.Interests,
		}
		if data.Age > 0 {
			age := data.Age
			childProfile.Age = &age
		}
	}

	personality := w.profiles.FetchToyPersonality(ctx, data.DeviceID)
	rules := w.profiles.FetchParentalRules(ctx, data.DeviceID)
	systemPrompt := prompt.BuildAssistantPrompt(childProfile, personality.PromptFragment(), rules.PromptFragment(), data.Transcript())

	sess.intake = nil
	sess.assistant = agent.NewAssistantAgent(data, w.chat, w.conversations, systemPrompt,
		w.opts.FlushThreshold, w.opts.EnableRetrieval, w.logger)

	greeting, err := sess.assistant.Greet(ctx)
	if err != nil {
		w.logger.Error("Post-handoff greeting failed",
			zap.String("identity", identity),
			zap.Error(err))
		return
	}
	w.say(ctx, identity, greeting)
	w.logger.Info("Handed off to assistant", zap.String("identity", identity))
}

// buildAssistantFromStore assembles the assistant for a returning user.
// Every fragment degrades independently: a missing profile, personality or
// rules row narrows the prompt rather than failing the session.
func (w *Worker) buildAssistantFromStore(ctx context.Context, data *session.Data) *agent.AssistantAgent {
	var childProfile *prompt.Profile
	stored, err := w.profiles.FetchChildProfile(ctx, data.DeviceID)
	if err != nil {
		w.logger.Warn("No stored profile for returning user",
			zap.String("identity", data.DeviceID),
			zap.Error(err))
	} else {
		childProfile = stored.PromptFragment()
		data.Name = stored.Name
	}

	personality := w.profiles.FetchToyPersonality(ctx, data.DeviceID)
	rules := w.profiles.FetchParentalRules(ctx, data.DeviceID)
	systemPrompt := prompt.BuildAssistantPrompt(childProfile, personality.PromptFragment(), rules.PromptFragment(), "")

	return agent.NewAssistantAgent(data, w.chat, w.conversations, systemPrompt,
		w.opts.FlushThreshold, w.opts.EnableRetrieval, w.logger)
}

func (w *Worker) greet(ctx context.Context, sess *participantSession) (string, error) {
	if sess.intake != nil {
		return sess.intake.Greet(ctx)
	}
	return sess.assistant.Greet(ctx)
}

func (w *Worker) say(ctx context.Context, identity, text string) {
	if err := w.transport.Say(ctx, identity, text); err != nil {
		w.logger.Warn("Failed to deliver reply",
			zap.String("identity", identity),
			zap.Error(err))
	}
}

// flush persists a session transcript. The write is shielded from the
// caller's cancellation so a disconnect or shutdown cannot cut it short.
func (w *Worker) flush(ctx context.Context, identity string, sess *participantSession) {
	if sess.assistant == nil {
		// Intake never finished; there is nothing durable to keep.
		sess.data.ClearHistory()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic during session flush",
				zap.String("identity", identity),
				zap.Any("panic", r))
		}
	}()

	if err := sess.assistant.OnSessionEnd(context.WithoutCancel(ctx)); err != nil {
		w.logger.Error("Session flush failed",
			zap.String("identity", identity),
			zap.Error(err))
	}
}

func (w *Worker) shutdown(ctx context.Context) {
	for identity, sess := range w.sessions {
		w.flush(ctx, identity, sess)
		delete(w.sessions, identity)
	}
	w.logger.Info("Worker stopped")
}

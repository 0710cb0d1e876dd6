package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/chat"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// roster resolves user IDs to profiles, satisfied by *profiles.Service.
type roster interface {
	GetByID(ctx context.Context, id string) (*profiles.UserProfile, error)
}

// ScheduleNotifier emails thread members about schedule proposals.
// Delivery is best-effort: failures are logged, never surfaced.
type ScheduleNotifier struct {
	mailer Mailer
	roster roster
	logger *zap.Logger
}

func NewScheduleNotifier(mailer Mailer, roster roster, logger *zap.Logger) *ScheduleNotifier {
	return &ScheduleNotifier{mailer: mailer, roster: roster, logger: logger}
}

// ScheduleProposed notifies the counterpart that a session was proposed.
func (n *ScheduleNotifier) ScheduleProposed(ctx context.Context, msg *chat.Message) {
	if msg.Content.Kind != chat.KindSchedule || msg.Content.Schedule == nil {
		return
	}
	counterpartID, ok := msg.Members.Counterpart(msg.SenderID)
	if !ok {
		return
	}
	counterpart, proposer, err := n.resolvePair(ctx, counterpartID, msg.SenderID)
	if err != nil {
		n.logger.Warn("schedule proposal notification skipped", zap.Error(err))
		return
	}

	sched := msg.Content.Schedule
	subject := fmt.Sprintf("%s proposed a session: %s", proposer.Name, sched.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\n%s proposed a skill-swap session.\n\n  %s\n  %s\n\nOpen SkillSwap to accept or reply.\n",
		counterpart.Name, proposer.Name, sched.Title, sched.Date.Format(time.RFC1123),
	)
	if err := n.mailer.Send(ctx, counterpart.Email, subject, body); err != nil {
		n.logger.Warn("schedule proposal email failed", zap.String("to", counterpart.Email), zap.Error(err))
	}
}

// ScheduleAccepted notifies the proposer that their session was accepted.
func (n *ScheduleNotifier) ScheduleAccepted(ctx context.Context, msg *chat.Message) {
	if msg.Content.Kind != chat.KindSchedule || msg.Content.Schedule == nil {
		return
	}
	sched := msg.Content.Schedule
	accepterID, ok := msg.Members.Counterpart(sched.ProposerID)
	if !ok {
		return
	}
	proposer, accepter, err := n.resolvePair(ctx, sched.ProposerID, accepterID)
	if err != nil {
		n.logger.Warn("schedule accepted notification skipped", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s accepted your session: %s", accepter.Name, sched.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\n%s accepted your proposal.\n\n  %s\n  %s\n  %s\n\nSee you there!\n",
		proposer.Name, accepter.Name, sched.Title, sched.Date.Format(time.RFC1123), sched.MeetLink,
	)
	if err := n.mailer.Send(ctx, proposer.Email, subject, body); err != nil {
		n.logger.Warn("schedule accepted email failed", zap.String("to", proposer.Email), zap.Error(err))
	}
}

func (n *ScheduleNotifier) resolvePair(ctx context.Context, firstID, secondID string) (*profiles.UserProfile, *profiles.UserProfile, error) {
	first, err := n.roster.GetByID(ctx, firstID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", firstID, err)
	}
	second, err := n.roster.GetByID(ctx, secondID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", secondID, err)
	}
	return first, second, nil
}

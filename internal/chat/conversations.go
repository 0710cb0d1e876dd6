package chat

import (
	"context"
	"sort"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// Conversation is the derived per-counterpart summary shown in the chat
// list. It is recomputed on every read, never persisted.
type Conversation struct {
	Counterpart *profiles.UserProfile `json:"counterpart"`
	LastMessage *Message              `json:"last_message"`
	UnreadCount int                   `json:"unread_count"`
}

// rosterLister resolves counterpart profiles for aggregation.
type rosterLister interface {
	List(ctx context.Context) ([]*profiles.UserProfile, error)
}

// Aggregator derives the conversation list from the user's full message
// set.
type Aggregator struct {
	messages messageRepo
	roster   rosterLister
}

// NewAggregator creates an Aggregator.
func NewAggregator(messages messageRepo, roster rosterLister) *Aggregator {
	return &Aggregator{messages: messages, roster: roster}
}

// ListConversations returns one conversation per counterpart the user
// has exchanged messages with.
func (a *Aggregator) ListConversations(ctx context.Context, currentUserID string) ([]*Conversation, error) {
	msgs, err := a.messages.ListByMember(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	roster, err := a.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	return AggregateConversations(currentUserID, msgs, roster), nil
}

// AggregateConversations partitions messages by counterpart and derives
// the last message and unread count per partition. Pure and
// deterministic given the same inputs.
//
// Messages whose counterpart has no resolvable profile are dropped
// rather than erroring the whole view. A message without a resolved
// timestamp counts as earliest, so it is only ever the last message
// when it is the partition's only message. The unread count covers
// messages sent by the counterpart that the current user has not read.
func AggregateConversations(currentUserID string, msgs []*Message, roster []*profiles.UserProfile) []*Conversation {
	byID := make(map[string]*profiles.UserProfile, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	convs := make(map[string]*Conversation)
	for _, msg := range msgs {
		counterpartID, ok := msg.Members.Counterpart(currentUserID)
		if !ok {
			continue
		}
		profile, ok := byID[counterpartID]
		if !ok {
			continue
		}

		conv := convs[counterpartID]
		if conv == nil {
			conv = &Conversation{Counterpart: profile, LastMessage: msg}
			convs[counterpartID] = conv
		} else if laterThan(msg, conv.LastMessage) {
			conv.LastMessage = msg
		}
		if msg.SenderID == counterpartID && !msg.IsRead {
			conv.UnreadCount++
		}
	}

	out := make([]*Conversation, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conv)
	}
	// Contract leaves the order open; sort by last activity descending
	// with a counterpart-ID tie-break so output is deterministic.
	sort.Slice(out, func(i, j int) bool {
		if laterThan(out[i].LastMessage, out[j].LastMessage) {
			return true
		}
		if laterThan(out[j].LastMessage, out[i].LastMessage) {
			return false
		}
		return out[i].Counterpart.ID < out[j].Counterpart.ID
	})
	return out
}

// laterThan reports whether a is strictly more recent than b, treating
// a missing timestamp as earliest.
func laterThan(a, b *Message) bool {
	switch {
	case a.Timestamp == nil:
		return false
	case b.Timestamp == nil:
		return true
	default:
		return a.Timestamp.After(*b.Timestamp)
	}
}

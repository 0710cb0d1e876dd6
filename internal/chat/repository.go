package chat

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

// scheduleTypeTag discriminates schedule documents inside the content
// field. Documents without it decode as unknown content.
const scheduleTypeTag = "schedule"

// messageDoc is the wire form of a message in the messages collection.
// Content is kept raw so string and embedded-document payloads can share
// the field, mirroring the tagged union in the domain model.
type messageDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	SenderID  string        `bson:"sender_id"`
	Members   []string      `bson:"members"`
	Content   bson.RawValue `bson:"content"`
	Timestamp *time.Time    `bson:"timestamp,omitempty"`
	IsRead    bool          `bson:"is_read"`
}

type scheduleDoc struct {
	Type       string    `bson:"type"`
	ProposerID string    `bson:"proposer_id"`
	Date       time.Time `bson:"date"`
	Title      string    `bson:"title"`
	MeetLink   string    `bson:"meet_link"`
	Status     string    `bson:"status"`
}

// MessageRepository provides message operations against the messages
// collection.
type MessageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository creates a MessageRepository backed by the given
// collection.
func NewMessageRepository(coll *mongo.Collection) *MessageRepository {
	return &MessageRepository{coll: coll}
}

// Insert persists a new message, assigning its ID and the authoritative
// server timestamp. Client clocks are never trusted for ordering.
func (r *MessageRepository) Insert(ctx context.Context, msg *Message) error {
	now := time.Now().UTC()

	var content any
	switch msg.Content.Kind {
	case KindText:
		content = msg.Content.Text
	case KindSchedule:
		sd := msg.Content.Schedule
		content = scheduleDoc{
			Type:       scheduleTypeTag,
			ProposerID: sd.ProposerID,
			Date:       sd.Date.UTC(),
			Title:      sd.Title,
			MeetLink:   sd.MeetLink,
			Status:     string(sd.Status),
		}
	default:
		return ErrEmptyMessage
	}

	doc := bson.D{
		{Key: "sender_id", Value: msg.SenderID},
		{Key: "members", Value: msg.Members.Members()},
		{Key: "content", Value: content},
		{Key: "timestamp", Value: now},
		{Key: "is_read", Value: msg.IsRead},
	}

	result, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert message: %w", store.MapError(err))
	}
	msg.ID = result.InsertedID.(bson.ObjectID).Hex()
	msg.Timestamp = &now
	return nil
}

// GetByID fetches a single message.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var doc messageDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get message: %w", store.MapError(err))
	}
	return fromDoc(&doc), nil
}

// ListThread fetches a full thread by exact canonical member pair.
// The pair is sorted, so the query is symmetric in who asks.
func (r *MessageRepository) ListThread(ctx context.Context, key ThreadKey) ([]*Message, error) {
	return r.list(ctx, bson.M{"members": key.Members()})
}

// ListByMember fetches every message the user is a party to, the
// superset strategy used for conversation aggregation.
func (r *MessageRepository) ListByMember(ctx context.Context, userID string) ([]*Message, error) {
	return r.list(ctx, bson.M{"members": userID})
}

func (r *MessageRepository) list(ctx context.Context, filter bson.M) ([]*Message, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", store.MapError(err))
	}
	defer cursor.Close(ctx)

	var docs []*messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", store.MapError(err))
	}
	msgs := make([]*Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, fromDoc(d))
	}
	return msgs, nil
}

// AcceptSchedule performs the single-document conditional update
// pending → accepted. The filter re-checks every state-machine rule so
// a bypassed client still cannot drive an illegal transition: the
// target must be a pending schedule, the acceptor must be a member, and
// must not be the proposer. Returns whether a document transitioned;
// false with nil error means the message no longer matched (already
// accepted, or the condition failed server-side).
func (r *MessageRepository) AcceptSchedule(ctx context.Context, id, acceptorID string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, store.ErrNotFound
	}
	filter := bson.M{
		"_id":                 oid,
		"members":             acceptorID,
		"content.type":        scheduleTypeTag,
		"content.status":      string(StatusPending),
		"content.proposer_id": bson.M{"$ne": acceptorID},
	}
	update := bson.M{"$set": bson.M{"content.status": string(StatusAccepted)}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("accept schedule: %w", store.MapError(err))
	}
	return res.ModifiedCount > 0, nil
}

// MarkRead flips is_read on the snapshot of message IDs in one batch
// update. The sender guard and the is_read filter make repeat calls a
// harmless no-op, and messages arriving after the snapshot are simply
// picked up by the next call.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []string, readerID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	filter := bson.M{
		"_id":       bson.M{"$in": oids},
		"sender_id": bson.M{"$ne": readerID},
		"is_read":   false,
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", store.MapError(err))
	}
	return res.ModifiedCount, nil
}

// fromDoc converts the wire form into the domain model, tolerating
// unknown content shapes per the defensive default: they decode as
// KindUnknown and render as nothing.
func fromDoc(d *messageDoc) *Message {
	var key ThreadKey
	if len(d.Members) == 2 {
		key, _ = NewThreadKey(d.Members[0], d.Members[1])
	}
	return &Message{
		ID:        d.ID.Hex(),
		SenderID:  d.SenderID,
		Members:   key,
		Content:   decodeContent(d.Content),
		Timestamp: d.Timestamp,
		IsRead:    d.IsRead,
	}
}

func decodeContent(raw bson.RawValue) Content {
	switch raw.Type {
	case bson.TypeString:
		if text, ok := raw.StringValueOK(); ok {
			return TextContent(text)
		}
	case bson.TypeEmbeddedDocument:
		var sd scheduleDoc
		if err := bson.Unmarshal(raw.Value, &sd); err == nil && sd.Type == scheduleTypeTag {
			return ScheduleContent(ScheduleDetails{
				ProposerID: sd.ProposerID,
				Date:       sd.Date,
				Title:      sd.Title,
				MeetLink:   sd.MeetLink,
				Status:     ScheduleStatus(sd.Status),
			})
		}
	}
	return Content{}
}

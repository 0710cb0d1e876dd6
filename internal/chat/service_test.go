package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/chat"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

// ── Stub repo ─────────────────────────────────────────────────────────────

type stubMessageRepo struct {
	mu        sync.Mutex
	seq       int
	msgs      map[string]*chat.Message
	insertErr error
	markErr   error
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{msgs: make(map[string]*chat.Message)}
}

var stubEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cloneMsg(m *chat.Message) *chat.Message {
	cp := *m
	if m.Content.Schedule != nil {
		sd := *m.Content.Schedule
		cp.Content.Schedule = &sd
	}
	return &cp
}

func (r *stubMessageRepo) Insert(_ context.Context, msg *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.seq++
	msg.ID = fmt.Sprintf("msg-%03d", r.seq)
	ts := stubEpoch.Add(time.Duration(r.seq) * time.Second)
	msg.Timestamp = &ts
	r.msgs[msg.ID] = cloneMsg(msg)
	return nil
}

func (r *stubMessageRepo) GetByID(_ context.Context, id string) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneMsg(m), nil
}

func (r *stubMessageRepo) ListThread(_ context.Context, key chat.ThreadKey) ([]*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.Message
	for _, m := range r.msgs {
		if m.Members == key {
			out = append(out, cloneMsg(m))
		}
	}
	return out, nil
}

func (r *stubMessageRepo) ListByMember(_ context.Context, userID string) ([]*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.Message
	for _, m := range r.msgs {
		if m.Members.Contains(userID) {
			out = append(out, cloneMsg(m))
		}
	}
	return out, nil
}

// AcceptSchedule mirrors the conditional single-document update: every
// state-machine rule is re-checked against the stored message.
func (r *stubMessageRepo) AcceptSchedule(_ context.Context, id, acceptorID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return false, nil
	}
	sd := m.Content.Schedule
	if m.Content.Kind != chat.KindSchedule ||
		!m.Members.Contains(acceptorID) ||
		sd.ProposerID == acceptorID ||
		sd.Status != chat.StatusPending {
		return false, nil
	}
	sd.Status = chat.StatusAccepted
	return true, nil
}

func (r *stubMessageRepo) MarkRead(_ context.Context, ids []string, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return 0, r.markErr
	}
	var n int64
	for _, id := range ids {
		if m, ok := r.msgs[id]; ok && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T) (*chat.Service, *stubMessageRepo) {
	t.Helper()
	repo := newStubMessageRepo()
	return chat.NewService(repo, chat.NewMemoryBroker(), "", zap.NewNop()), repo
}

// ── Sending ───────────────────────────────────────────────────────────────

func TestSendTextRejectsEmptyText(t *testing.T) {
	svc, repo := newTestService(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := svc.SendText(context.Background(), "alice", "bob", text); !errors.Is(err, chat.ErrEmptyMessage) {
			t.Errorf("SendText(%q) = %v, want ErrEmptyMessage", text, err)
		}
	}
	if len(repo.msgs) != 0 {
		t.Error("validation failure must not reach the store")
	}
}

func TestSendTextRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sent, err := svc.SendText(ctx, "bob", "alice", "  hi  ")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if sent.Timestamp == nil {
		t.Error("expected a server-assigned timestamp")
	}
	if sent.IsRead {
		t.Error("new messages start unread")
	}

	// Reload from either side: identical sender, members, content.
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		msgs, err := svc.LoadThread(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("LoadThread(%v): %v", pair, err)
		}
		if len(msgs) != 1 {
			t.Fatalf("LoadThread(%v) returned %d messages", pair, len(msgs))
		}
		got := msgs[0]
		if got.SenderID != "bob" || got.Members != sent.Members || got.Content.Text != "hi" {
			t.Errorf("round trip mismatch: %+v", got)
		}
	}
}

func TestSendTextStoreRejectionKeepsDraft(t *testing.T) {
	svc, repo := newTestService(t)
	repo.insertErr = store.ErrPermissionDenied

	_, err := svc.SendText(context.Background(), "alice", "bob", "hello")
	if !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}

	var sendErr *chat.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *SendError, got %T", err)
	}
	if sendErr.Draft == nil || sendErr.Draft.Content.Text != "hello" {
		t.Errorf("draft not retrievable from error: %+v", sendErr.Draft)
	}
}

func TestSendSchedule(t *testing.T) {
	svc, _ := newTestService(t)
	date := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)

	msg, err := svc.SendSchedule(context.Background(), "alice", "bob", chat.ScheduleDraft{
		Title: "Go basics",
		Date:  date,
	})
	if err != nil {
		t.Fatalf("SendSchedule: %v", err)
	}

	sd := msg.Content.Schedule
	if msg.Content.Kind != chat.KindSchedule || sd == nil {
		t.Fatalf("content = %+v", msg.Content)
	}
	if sd.Status != chat.StatusPending {
		t.Errorf("status = %s, want pending", sd.Status)
	}
	if sd.ProposerID != "alice" {
		t.Errorf("proposer = %s, want the sender", sd.ProposerID)
	}
	if !strings.HasPrefix(sd.MeetLink, "https://meet.skillswap.dev/") {
		t.Errorf("meet link = %q", sd.MeetLink)
	}
	if !sd.Date.Equal(date) {
		t.Errorf("date = %v", sd.Date)
	}
}

func TestSendScheduleRejectsInvalidDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SendSchedule(ctx, "alice", "bob", chat.ScheduleDraft{Date: time.Now()}); !errors.Is(err, chat.ErrInvalidSchedule) {
		t.Errorf("missing title: got %v", err)
	}
	if _, err := svc.SendSchedule(ctx, "alice", "bob", chat.ScheduleDraft{Title: "x"}); !errors.Is(err, chat.ErrInvalidSchedule) {
		t.Errorf("missing date: got %v", err)
	}
}

// ── Schedule state machine ────────────────────────────────────────────────

func proposeSchedule(t *testing.T, svc *chat.Service) *chat.Message {
	t.Helper()
	msg, err := svc.SendSchedule(context.Background(), "alice", "bob", chat.ScheduleDraft{
		Title: "Rust intro",
		Date:  time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SendSchedule: %v", err)
	}
	return msg
}

func TestAcceptScheduleTransitionsExactlyOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	msg := proposeSchedule(t, svc)

	accepted, err := svc.AcceptSchedule(ctx, "bob", msg.ID)
	if err != nil {
		t.Fatalf("AcceptSchedule: %v", err)
	}
	if accepted.Content.Schedule.Status != chat.StatusAccepted {
		t.Fatalf("status = %s", accepted.Content.Schedule.Status)
	}
	if accepted.Content.Schedule.MeetLink != msg.Content.Schedule.MeetLink {
		t.Error("accept must leave the other schedule fields unchanged")
	}

	// Double-accept (e.g. a double-click) is a safe no-op.
	again, err := svc.AcceptSchedule(ctx, "bob", msg.ID)
	if err != nil {
		t.Fatalf("second AcceptSchedule: %v", err)
	}
	if again.Content.Schedule.Status != chat.StatusAccepted {
		t.Errorf("status after no-op = %s", again.Content.Schedule.Status)
	}
}

func TestAcceptScheduleRejectsProposer(t *testing.T) {
	svc, repo := newTestService(t)
	msg := proposeSchedule(t, svc)

	if _, err := svc.AcceptSchedule(context.Background(), "alice", msg.ID); !errors.Is(err, chat.ErrScheduleByProposer) {
		t.Fatalf("proposer accept = %v, want ErrScheduleByProposer", err)
	}
	stored, _ := repo.GetByID(context.Background(), msg.ID)
	if stored.Content.Schedule.Status != chat.StatusPending {
		t.Error("proposal must stay pending after a rejected accept")
	}
}

func TestAcceptScheduleRejectsOutsiders(t *testing.T) {
	svc, _ := newTestService(t)
	msg := proposeSchedule(t, svc)

	if _, err := svc.AcceptSchedule(context.Background(), "mallory", msg.ID); !errors.Is(err, chat.ErrNotThreadMember) {
		t.Errorf("outsider accept = %v, want ErrNotThreadMember", err)
	}
}

func TestAcceptScheduleRejectsTextMessages(t *testing.T) {
	svc, _ := newTestService(t)
	msg, err := svc.SendText(context.Background(), "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if _, err := svc.AcceptSchedule(context.Background(), "bob", msg.ID); !errors.Is(err, chat.ErrNotSchedule) {
		t.Errorf("accept on text = %v, want ErrNotSchedule", err)
	}
}

// ── Read receipts ─────────────────────────────────────────────────────────

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SendText(ctx, "bob", "alice", "one"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if _, err := svc.SendText(ctx, "bob", "alice", "two"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if _, err := svc.SendText(ctx, "alice", "bob", "mine"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	msgs, err := svc.LoadThread(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("LoadThread: %v", err)
	}

	// Only bob's two messages are eligible; alice's own is untouched.
	if n := svc.MarkRead(ctx, "alice", msgs); n != 2 {
		t.Fatalf("first MarkRead marked %d, want 2", n)
	}

	msgs, _ = svc.LoadThread(ctx, "alice", "bob")
	if n := svc.MarkRead(ctx, "alice", msgs); n != 0 {
		t.Errorf("second MarkRead marked %d, want 0", n)
	}
	for _, m := range msgs {
		if m.SenderID == "bob" && !m.IsRead {
			t.Errorf("message %s still unread", m.ID)
		}
		if m.SenderID == "alice" && m.IsRead {
			t.Errorf("own message %s must not be marked", m.ID)
		}
	}
}

func TestMarkReadSwallowsStoreFailures(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SendText(ctx, "bob", "alice", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	msgs, _ := svc.LoadThread(ctx, "alice", "bob")

	repo.markErr = store.ErrUnavailable
	if n := svc.MarkRead(ctx, "alice", msgs); n != 0 {
		t.Errorf("failed MarkRead reported %d updates", n)
	}
	// Best-effort: no panic, no error surfaced; next call catches up.
	repo.markErr = nil
	if n := svc.MarkRead(ctx, "alice", msgs); n != 1 {
		t.Errorf("retry MarkRead marked %d, want 1", n)
	}
}

// ── Live updates ──────────────────────────────────────────────────────────

func TestSubscribeReceivesSentMessages(t *testing.T) {
	svc, _ := newTestService(t)

	events, cancel, err := svc.Subscribe("alice", "bob")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	sent, err := svc.SendText(context.Background(), "bob", "alice", "ping")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != sent.ID || got.Content.Text != "ping" {
			t.Errorf("event = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

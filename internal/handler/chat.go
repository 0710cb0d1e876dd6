package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/auth"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/chat"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/store"
)

// chatSvc is the interface expected by ChatHandler, satisfied by *chat.Service.
type chatSvc interface {
	LoadThread(ctx context.Context, currentUserID, counterpartID string) ([]*chat.Message, error)
	SendText(ctx context.Context, currentUserID, counterpartID, text string) (*chat.Message, error)
	SendSchedule(ctx context.Context, currentUserID, counterpartID string, draft chat.ScheduleDraft) (*chat.Message, error)
	AcceptSchedule(ctx context.Context, userID, messageID string) (*chat.Message, error)
	MarkRead(ctx context.Context, currentUserID string, msgs []*chat.Message) int64
	Subscribe(currentUserID, counterpartID string) (<-chan chat.Message, chat.CancelFunc, error)
}

// conversationSvc is satisfied by *chat.Aggregator.
type conversationSvc interface {
	ListConversations(ctx context.Context, currentUserID string) ([]*chat.Conversation, error)
}

// ChatHandler handles messaging routes.
type ChatHandler struct {
	chat          chatSvc
	conversations conversationSvc
	tokens        *auth.TokenIssuer
	logger        *zap.Logger
}

func NewChatHandler(chatSvc chatSvc, conversations conversationSvc, tokens *auth.TokenIssuer, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chatSvc, conversations: conversations, tokens: tokens, logger: logger}
}

// Register mounts chat routes on the provided router group.
func (h *ChatHandler) Register(rg *gin.RouterGroup) {
	protected := rg.Group("", auth.RequireUser(h.tokens))
	{
		protected.GET("/conversations", h.ListConversations)
		protected.GET("/chats/:userId", h.LoadThread)
		protected.GET("/chats/:userId/stream", h.StreamThread)
		protected.POST("/chats/:userId/messages", h.SendMessage)
		protected.POST("/chats/:userId/read", h.MarkRead)
		protected.POST("/messages/:id/accept", h.AcceptSchedule)
	}
}

type sendMessageRequest struct {
	Type     string `json:"type" binding:"required"` // "text" or "schedule"
	Text     string `json:"text"`
	Schedule *struct {
		Title string    `json:"title"`
		Date  time.Time `json:"date"`
	} `json:"schedule"`
}

// ListConversations handles GET /conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	convs, err := h.conversations.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.writeChatError(c, err, "list conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// LoadThread handles GET /chats/:userId — the full thread with that user,
// oldest first.
func (h *ChatHandler) LoadThread(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	msgs, err := h.chat.LoadThread(c.Request.Context(), userID, c.Param("userId"))
	if err != nil {
		h.writeChatError(c, err, "load thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage handles POST /chats/:userId/messages — sends a text message
// or a schedule proposal to that user.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := auth.UserIDFromCtx(c)
	counterpartID := c.Param("userId")

	var (
		msg *chat.Message
		err error
	)
	switch req.Type {
	case "text":
		msg, err = h.chat.SendText(c.Request.Context(), userID, counterpartID, req.Text)
	case "schedule":
		if req.Schedule == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "schedule payload is required"})
			return
		}
		draft := chat.ScheduleDraft{Title: req.Schedule.Title, Date: req.Schedule.Date}
		msg, err = h.chat.SendSchedule(c.Request.Context(), userID, counterpartID, draft)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be \"text\" or \"schedule\""})
		return
	}
	if err != nil {
		h.writeChatError(c, err, "send message")
		return
	}
	RecordMessageSent(req.Type)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead handles POST /chats/:userId/read — marks the counterpart's
// messages in this thread as read. Always returns 200; read receipts are
// best-effort.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	msgs, err := h.chat.LoadThread(c.Request.Context(), userID, c.Param("userId"))
	if err != nil {
		h.writeChatError(c, err, "mark read")
		return
	}
	updated := h.chat.MarkRead(c.Request.Context(), userID, msgs)
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// AcceptSchedule handles POST /messages/:id/accept — accepts a pending
// schedule proposal.
func (h *ChatHandler) AcceptSchedule(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)
	messageID := c.Param("id")

	msg, err := h.chat.AcceptSchedule(c.Request.Context(), userID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, chat.ErrNotThreadMember):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this conversation"})
		case errors.Is(err, chat.ErrScheduleByProposer):
			c.JSON(http.StatusForbidden, gin.H{"error": "a proposal cannot be accepted by its proposer"})
		case errors.Is(err, chat.ErrNotSchedule):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is not a schedule proposal"})
		default:
			h.writeChatError(c, err, "accept schedule")
		}
		return
	}
	c.JSON(http.StatusOK, msg)
}

// StreamThread handles GET /chats/:userId/stream — a server-sent-events
// stream of new messages in the thread.
func (h *ChatHandler) StreamThread(c *gin.Context) {
	userID := auth.UserIDFromCtx(c)

	ch, cancel, err := h.chat.Subscribe(userID, c.Param("userId"))
	if err != nil {
		h.writeChatError(c, err, "subscribe thread")
		return
	}
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		}
	})
}

func (h *ChatHandler) writeChatError(c *gin.Context, err error, op string) {
	var sendErr *chat.SendError
	if errors.As(err, &sendErr) {
		// Return the unsent draft so clients can offer a retry.
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "message could not be delivered",
			"draft": sendErr.Draft,
		})
		return
	}

	switch {
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidSchedule),
		errors.Is(err, chat.ErrEmptyMember),
		errors.Is(err, chat.ErrSameMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, store.ErrUnavailable):
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

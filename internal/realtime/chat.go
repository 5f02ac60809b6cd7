package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

const (
	historySize   = 50
	maxChatLength = 500
)

type chatMessage struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages,omitempty"`
	Message  *models.Message  `json:"message,omitempty"`
}

// Chat persists every message and relays it to all chat pages.
type Chat struct {
	hub      *Hub
	messages dao.MessageRepository
	log      *zap.Logger
}

func NewChat(messages dao.MessageRepository, log *zap.Logger) *Chat {
	return &Chat{hub: NewHub("chat", log), messages: messages, log: log}
}

func (ch *Chat) Run(ctx context.Context) {
	ch.hub.Run(ctx)
}

// Handle upgrades GET /ws/chat. Messages are attributed to the session user.
func (ch *Chat) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	author := "anónimo"
	if u, ok := middleware.CurrentUser(c); ok {
		author = u.FirstName
		if author == "" {
			author = u.Email
		}
	}

	ch.hub.serve(c.Writer, c.Request,
		func(cl *client) {
			history, err := ch.messages.RecentMessages(ctx, historySize)
			if err != nil {
				ch.log.Error("❌ historial de chat", zap.Error(err))
				history = []models.Message{}
			}
			ch.hub.sendTo(cl, chatMessage{Type: "history", Messages: history})
		},
		func(_ *client, data []byte) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(data, &in); err != nil {
				return
			}
			text := strings.TrimSpace(in.Message)
			if text == "" {
				return
			}
			if r := []rune(text); len(r) > maxChatLength {
				text = string(r[:maxChatLength])
			}

			saved, err := ch.messages.SaveMessage(ctx, models.Message{User: author, Message: text, CreatedAt: time.Now().UTC()})
			if err != nil {
				ch.log.Error("❌ guardado de mensaje", zap.Error(err))
				return
			}
			if err := ch.hub.Broadcast(ctx, chatMessage{Type: "message", Message: &saved}); err != nil {
				ch.log.Warn("difusión de chat", zap.Error(err))
			}
		},
	)
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/dao"
	"storefront/internal/models"
)

type MessageManager struct {
	coll *mongo.Collection
}

var _ dao.MessageRepository = (*MessageManager)(nil)

func NewMessageManager(database *mongo.Database) *MessageManager {
	return &MessageManager{coll: database.Collection(messagesCollection)}
}

func (m *MessageManager) SaveMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	doc := messageDocument{ID: msg.ID, User: msg.User, Message: msg.Message, CreatedAt: msg.CreatedAt}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return models.Message{}, fmt.Errorf("alta de mensaje: %w", err)
	}
	return msg, nil
}

// RecentMessages returns the last limit messages, oldest first.
func (m *MessageManager) RecentMessages(ctx context.Context, limit int) ([]models.Message, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("búsqueda de mensajes: %w", err)
	}
	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("lectura de mensajes: %w", err)
	}

	out := make([]models.Message, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = d.toModel()
	}
	return out, nil
}

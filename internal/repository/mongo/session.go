package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// threadDocument is the stored form of a session
type threadDocument struct {
	ThreadID  string            `bson:"_id"`
	Messages  []messageDocument `bson:"messages"`
	Profile   map[string]string `bson:"profile"`
	Summary   string            `bson:"summary"`
	Version   int64             `bson:"version"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type messageDocument struct {
	Role       string             `bson:"role"`
	Content    string             `bson:"content"`
	ToolCalls  []toolCallDocument `bson:"tool_calls,omitempty"`
	ToolCallID string             `bson:"tool_call_id,omitempty"`
	Name       string             `bson:"name,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

type toolCallDocument struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Arguments string `bson:"arguments"`
}

// SessionStore implements domain.SessionStore on a MongoDB collection
type SessionStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client and selects the configured collection
func Connect(ctx context.Context, cfg config.MongoConfig) (*SessionStore, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		clientOpts.SetConnectTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &SessionStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the client
func (s *SessionStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *SessionStore) LoadOrInit(ctx context.Context, threadID string) (*domain.Session, error) {
	var doc threadDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": threadID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NewSession(threadID), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return fromDocument(doc), nil
}

// Checkpoint replaces the document in one write. A stale version either
// matches nothing (update) or collides on _id (insert); both are conflicts.
func (s *SessionStore) Checkpoint(ctx context.Context, session *domain.Session) error {
	doc := toDocument(session)
	doc.Version = session.Version + 1
	doc.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": session.ThreadID, "version": session.Version}
	res, err := s.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("thread %s: %w", session.ThreadID, domain.ErrCheckpointConflict)
		}
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("thread %s: %w", session.ThreadID, domain.ErrCheckpointConflict)
	}

	session.Version = doc.Version
	session.UpdatedAt = doc.UpdatedAt
	return nil
}

func toDocument(s *domain.Session) threadDocument {
	doc := threadDocument{
		ThreadID: s.ThreadID,
		Messages: make([]messageDocument, 0, len(s.Messages)),
		Profile:  s.Profile,
		Summary:  s.Summary,
	}
	for _, m := range s.Messages {
		md := messageDocument{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
			CreatedAt:  m.CreatedAt,
		}
		for _, tc := range m.ToolCalls {
			md.ToolCalls = append(md.ToolCalls, toolCallDocument{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		doc.Messages = append(doc.Messages, md)
	}
	return doc
}

func fromDocument(doc threadDocument) *domain.Session {
	s := domain.NewSession(doc.ThreadID)
	s.Summary = doc.Summary
	s.Version = doc.Version
	s.UpdatedAt = doc.UpdatedAt
	for k, v := range doc.Profile {
		s.Profile[k] = v
	}
	for _, md := range doc.Messages {
		m := domain.Message{
			Role:       domain.Role(md.Role),
			Content:    md.Content,
			ToolCallID: md.ToolCallID,
			Name:       md.Name,
			CreatedAt:  md.CreatedAt,
		}
		for _, tc := range md.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, domain.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		s.Messages = append(s.Messages, m)
	}
	return s
}

// Package mongo stores snippets in a MongoDB collection. Snippet ids are the
// hex form of the document ObjectID; malformed ids resolve to "not found".
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aisnippets/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionName = "snippets"
	connectTimeout = 10 * time.Second
)

var _ domain.SnippetStore = (*Store)(nil)

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
}

type snippetDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	Summary   string             `bson:"summary"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func New(ctx context.Context, uri string, databaseName string, log *slog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err = client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	collection := client.Database(databaseName).Collection(collectionName)

	_, err = collection.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to ensure MongoDB index",
			"error", err,
			"database", databaseName,
			"collection", collectionName)
	}

	return &Store{client: client, collection: collection, log: log}, nil
}

func (s *Store) Create(ctx context.Context, data domain.CreateSnippet) (*domain.Snippet, error) {
	now := time.Now().UTC()
	doc := snippetDocument{
		ID:        primitive.NewObjectID(),
		Text:      data.Text,
		Summary:   data.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert snippet: %w", err)
	}

	snippet := toSnippet(doc)
	return &snippet, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Snippet, error) {
	objectID, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}

	var doc snippetDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snippet: %w", err)
	}

	snippet := toSnippet(doc)
	return &snippet, nil
}

func (s *Store) FindAll(ctx context.Context) ([]domain.Snippet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find snippets: %w", err)
	}

	var docs []snippetDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode snippets: %w", err)
	}

	snippets := make([]domain.Snippet, 0, len(docs))
	for _, doc := range docs {
		snippets = append(snippets, toSnippet(doc))
	}

	return snippets, nil
}

func (s *Store) Update(ctx context.Context, id string, data domain.UpdateSnippet) (*domain.Snippet, error) {
	objectID, ok := parseObjectID(id)
	if !ok {
		s.log.WarnContext(ctx, "Invalid ObjectID format",
			"snippetID", id,
			"operation", "Update")

		return nil, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc snippetDocument
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, updateDocument(data, time.Now().UTC()), opts).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update snippet: %w", err)
	}

	snippet := toSnippet(doc)
	return &snippet, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	objectID, ok := parseObjectID(id)
	if !ok {
		return false, nil
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("delete snippet: %w", err)
	}

	return res.DeletedCount == 1, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func parseObjectID(id string) (primitive.ObjectID, bool) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}

	return objectID, true
}

func updateDocument(data domain.UpdateSnippet, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if data.Text != nil {
		set["text"] = *data.Text
	}
	if data.Summary != nil {
		set["summary"] = *data.Summary
	}

	return bson.M{"$set": set}
}

func toSnippet(doc snippetDocument) domain.Snippet {
	return domain.Snippet{
		ID:        doc.ID.Hex(),
		Text:      doc.Text,
		Summary:   doc.Summary,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

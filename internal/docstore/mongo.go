package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"mailcanvas/internal/domain"
)

// mongoStore keeps one document per template. The canvas is stored as a
// nested document so it stays queryable from the mongo shell.
type mongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
}

type templateDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Canvas    bson.Raw  `bson:"canvas,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// canvasEnvelope wraps the tree so it encodes as a document, not a bare array.
type canvasEnvelope struct {
	Blocks []domain.CanvasBlock `json:"blocks"`
}

// buildMongoURI accepts either a full mongodb:// or mongodb+srv:// URI in
// Host, or builds one from host, port and credentials.
func buildMongoURI(cfg Config) string {
	if strings.HasPrefix(cfg.Host, "mongodb+srv://") || strings.HasPrefix(cfg.Host, "mongodb://") {
		uri := cfg.Host
		if cfg.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", cfg.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", cfg.Password)
		}
		return uri
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	if cfg.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Username, cfg.Password, cfg.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", cfg.Host, port)
}

func openMongo(ctx context.Context, cfg Config, log *zap.Logger) (*mongoStore, error) {
	uri := buildMongoURI(cfg)
	logURI := uri
	if cfg.Password != "" {
		logURI = strings.ReplaceAll(logURI, cfg.Password, "***")
	}
	log.Info("connecting to mongo", zap.String("uri", logURI))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = "mailcanvas"
	}
	return &mongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(cfg.table()),
		log:    log,
	}, nil
}

// encodeCanvas converts the JSON tree into BSON through extended JSON so the
// stored shape mirrors the JSON shape field for field.
func encodeCanvas(content []domain.CanvasBlock) (bson.D, error) {
	if content == nil {
		content = []domain.CanvasBlock{}
	}
	raw, err := json.Marshal(canvasEnvelope{Blocks: content})
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, fmt.Errorf("convert content: %w", err)
	}
	return doc, nil
}

func decodeCanvas(raw bson.Raw) ([]domain.CanvasBlock, error) {
	if len(raw) == 0 {
		return []domain.CanvasBlock{}, nil
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert content: %w", err)
	}
	var env canvasEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if env.Blocks == nil {
		env.Blocks = []domain.CanvasBlock{}
	}
	return env.Blocks, nil
}

func (m *mongoStore) SaveTemplate(ctx context.Context, name string, content []domain.CanvasBlock, templateID string) (*domain.SaveResult, error) {
	canvas, err := encodeCanvas(content)
	if err != nil {
		return nil, err
	}
	if templateID == "" {
		templateID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: name},
			{Key: "canvas", Value: canvas},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
	}
	_, err = m.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: templateID}}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return &domain.SaveResult{ID: templateID, UpdatedAt: now}, nil
}

func (m *mongoStore) LoadTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var doc templateDoc
	err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load template %s: %w", id, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	content, err := decodeCanvas(doc.Canvas)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", id, err)
	}
	return &domain.Template{
		ID:        doc.ID,
		Name:      doc.Name,
		Content:   content,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (m *mongoStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "canvas", Value: 0}}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var docs []templateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]domain.TemplateSummary, len(docs))
	for i, d := range docs {
		out[i] = domain.TemplateSummary{ID: d.ID, Name: d.Name, UpdatedAt: d.UpdatedAt}
	}
	return out, nil
}

func (m *mongoStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

func (m *mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

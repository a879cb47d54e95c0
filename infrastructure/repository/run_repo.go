package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"webpilot-go/domain/run"
)

// runCollection is the collection holding run journal records.
const runCollection = "run"

// runDocument is the MongoDB document structure for runs.
// Run IDs are UUIDs and stored as the document _id.
type runDocument struct {
	ID         string         `bson:"_id"`
	AgentID    string         `bson:"agent_id"`
	Objective  string         `bson:"objective"`
	Status     string         `bson:"status"`
	Outcome    string         `bson:"outcome"`
	Error      string         `bson:"error,omitempty"`
	Steps      []stepDocument `bson:"steps,omitempty"`
	StartedAt  time.Time      `bson:"started_at"`
	FinishedAt time.Time      `bson:"finished_at"`
}

// stepDocument is the MongoDB document structure for run steps.
type stepDocument struct {
	Tick    int    `bson:"tick"`
	Action  string `bson:"action"`
	Target  string `bson:"target,omitempty"`
	Content string `bson:"content,omitempty"`
	Result  string `bson:"result,omitempty"`
}

// MongoRunRepository implements run.Repository using MongoDB.
type MongoRunRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoRunRepository creates a new MongoDB-based run repository.
func NewMongoRunRepository(db *MongoDB, logger *slog.Logger) *MongoRunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoRunRepository{
		collection: db.Collection(runCollection),
		logger:     logger,
	}
}

// EnsureIndexes creates the index used by FindRecent.
func (r *MongoRunRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create run index: %w", err)
	}
	return nil
}

// Insert stores a new run record.
func (r *MongoRunRepository) Insert(ctx context.Context, rec *run.Run) error {
	if _, err := r.collection.InsertOne(ctx, runToDocument(rec)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	r.logger.Info("Run recorded", "id", rec.ID, "status", rec.Status, "ticks", rec.Ticks())
	return nil
}

// FindByID retrieves a run by its identifier.
func (r *MongoRunRepository) FindByID(ctx context.Context, id string) (*run.Run, error) {
	var doc runDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return documentToRun(&doc), nil
}

// FindRecent retrieves the most recently started runs, newest first.
func (r *MongoRunRepository) FindRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []runDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}

	runs := make([]*run.Run, len(docs))
	for i := range docs {
		runs[i] = documentToRun(&docs[i])
	}
	return runs, nil
}

// documentToRun converts a MongoDB document to a domain Run.
func documentToRun(doc *runDocument) *run.Run {
	rec := &run.Run{
		ID:         doc.ID,
		AgentID:    doc.AgentID,
		Objective:  doc.Objective,
		Status:     run.Status(doc.Status),
		Outcome:    doc.Outcome,
		Error:      doc.Error,
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.FinishedAt,
	}

	if len(doc.Steps) > 0 {
		rec.Steps = make([]run.Step, len(doc.Steps))
		for i, s := range doc.Steps {
			rec.Steps[i] = run.Step{
				Tick:    s.Tick,
				Action:  s.Action,
				Target:  s.Target,
				Content: s.Content,
				Result:  s.Result,
			}
		}
	}

	return rec
}

// runToDocument converts a domain Run to a MongoDB document.
func runToDocument(rec *run.Run) *runDocument {
	doc := &runDocument{
		ID:         rec.ID,
		AgentID:    rec.AgentID,
		Objective:  rec.Objective,
		Status:     string(rec.Status),
		Outcome:    rec.Outcome,
		Error:      rec.Error,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}

	if len(rec.Steps) > 0 {
		doc.Steps = make([]stepDocument, len(rec.Steps))
		for i, s := range rec.Steps {
			doc.Steps[i] = stepDocument{
				Tick:    s.Tick,
				Action:  s.Action,
				Target:  s.Target,
				Content: s.Content,
				Result:  s.Result,
			}
		}
	}

	return doc
}

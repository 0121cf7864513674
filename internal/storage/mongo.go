package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gat-college/faqbot/internal/config"
	apperrors "github.com/gat-college/faqbot/internal/errors"
)

const duplicateKeyCode = 11000

// Mongo is the production backend.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Maintainer = (*Mongo)(nil)

type faqDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Question  string             `bson:"question"`
	Answer    string             `bson:"answer"`
	QNorm     string             `bson:"q_norm,omitempty"`
	Category  string             `bson:"category,omitempty"`
	Tags      []string           `bson:"tags,omitempty"`
	Source    string             `bson:"source,omitempty"`
	CreatedAt time.Time          `bson:"created_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty"`
}

func (d faqDoc) toFAQ() FAQ {
	f := FAQ{
		Question:  d.Question,
		Answer:    d.Answer,
		QNorm:     d.QNorm,
		Category:  d.Category,
		Tags:      d.Tags,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if !d.ID.IsZero() {
		f.ID = d.ID.Hex()
	}
	return f
}

type contactDoc struct {
	Role  string `bson:"role"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Phone string `bson:"phone,omitempty"`
}

type groupDoc struct {
	QNorm string               `bson:"_id"`
	Count int                  `bson:"count"`
	IDs   []primitive.ObjectID `bson:"ids"`
}

// NewMongo connects with a bounded server selection timeout and verifies
// the deployment with an admin ping.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StoreConnect)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(config.StoreConnect).
		SetAppName("faqbot"))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", apperrors.ErrUnavailable, err)
	}

	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) faqs() *mongo.Collection        { return m.db.Collection(CollectionFAQs) }
func (m *Mongo) departments() *mongo.Collection { return m.db.Collection(CollectionDepartments) }
func (m *Mongo) contacts() *mongo.Collection    { return m.db.Collection(CollectionContacts) }
func (m *Mongo) backup() *mongo.Collection      { return m.db.Collection(CollectionFAQBackup) }

// Backend implements Store.
func (m *Mongo) Backend() string { return BackendMongo }

// Ping implements Store.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ListFAQs implements FAQReader.
func (m *Mongo) ListFAQs(ctx context.Context) ([]FAQ, error) {
	cur, err := m.faqs().Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"question": 1, "answer": 1}))
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	var docs []faqDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}

	out := make([]FAQ, len(docs))
	for i, d := range docs {
		out[i] = FAQ{Question: d.Question, Answer: d.Answer}
	}
	return out, nil
}

// AdminContact implements Store.
func (m *Mongo) AdminContact(ctx context.Context) (Contact, error) {
	var doc contactDoc
	err := m.contacts().FindOne(ctx, bson.M{"role": RoleAdmin}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("admin contact: %w", err)
	}
	return Contact(doc), nil
}

// EnsureIndexes implements Maintainer.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.faqs(), mongo.IndexModel{
			Keys:    bson.D{{Key: "q_norm", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{m.departments(), mongo.IndexModel{
			Keys:    bson.D{{Key: "dept_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{m.departments(), mongo.IndexModel{
			Keys: bson.D{{Key: "aliases", Value: 1}},
		}},
		{m.contacts(), mongo.IndexModel{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: index on %s: %w", apperrors.ErrDuplicateKey, ix.coll.Name(), err)
			}
			return fmt.Errorf("index on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

func upsertModel(filter bson.M, set bson.M, now time.Time) mongo.WriteModel {
	return mongo.NewUpdateOneModel().
		SetFilter(filter).
		SetUpdate(bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		}).
		SetUpsert(true)
}

func bulkUpsert(ctx context.Context, coll *mongo.Collection, models []mongo.WriteModel) (UpsertResult, error) {
	if len(models) == 0 {
		return UpsertResult{}, nil
	}
	res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return UpsertResult{}, fmt.Errorf("bulk upsert %s: %w", coll.Name(), err)
	}
	return UpsertResult{
		Matched:  int(res.MatchedCount),
		Modified: int(res.ModifiedCount),
		Upserted: int(res.UpsertedCount),
	}, nil
}

// UpsertFAQs implements Maintainer.
func (m *Mongo) UpsertFAQs(ctx context.Context, faqs []FAQ, now time.Time) (UpsertResult, error) {
	models := make([]mongo.WriteModel, 0, len(faqs))
	for _, f := range faqs {
		models = append(models, upsertModel(bson.M{"q_norm": f.QNorm}, bson.M{
			"question":   f.Question,
			"answer":     f.Answer,
			"q_norm":     f.QNorm,
			"category":   f.Category,
			"tags":       nonNil(f.Tags),
			"updated_at": now,
			"source":     f.Source,
		}, now))
	}
	return bulkUpsert(ctx, m.faqs(), models)
}

// UpsertDepartments implements Maintainer.
func (m *Mongo) UpsertDepartments(ctx context.Context, depts []Department, now time.Time) (UpsertResult, error) {
	models := make([]mongo.WriteModel, 0, len(depts))
	for _, d := range depts {
		models = append(models, upsertModel(bson.M{"dept_id": d.DeptID}, bson.M{
			"dept_id": d.DeptID,
			"name":    d.Name,
			"aliases": nonNil(d.Aliases),
			"hod": bson.M{
				"name":        d.HOD.Name,
				"email":       d.HOD.Email,
				"phone":       d.HOD.Phone,
				"profile_url": d.HOD.ProfileURL,
			},
			"address":    d.Address,
			"maps_url":   d.MapsURL,
			"notes":      d.Notes,
			"updated_at": now,
			"source":     d.Source,
		}, now))
	}
	return bulkUpsert(ctx, m.departments(), models)
}

// UpsertContacts implements Maintainer.
func (m *Mongo) UpsertContacts(ctx context.Context, contacts []Contact, now time.Time) (UpsertResult, error) {
	models := make([]mongo.WriteModel, 0, len(contacts))
	for _, c := range contacts {
		models = append(models, upsertModel(bson.M{"role": c.Role}, bson.M{
			"role":       c.Role,
			"name":       c.Name,
			"email":      c.Email,
			"phone":      c.Phone,
			"updated_at": now,
		}, now))
	}
	return bulkUpsert(ctx, m.contacts(), models)
}

var missingNormFilter = bson.M{"$or": bson.A{
	bson.M{"q_norm": bson.M{"$exists": false}},
	bson.M{"q_norm": nil},
	bson.M{"q_norm": ""},
}}

// FillMissingNorms implements Maintainer.
func (m *Mongo) FillMissingNorms(ctx context.Context, norm func(string) string) (int, error) {
	cur, err := m.faqs().Find(ctx, missingNormFilter, options.Find().SetProjection(bson.M{"question": 1}))
	if err != nil {
		return 0, fmt.Errorf("fill q_norm: %w", err)
	}
	var docs []faqDoc
	if err := cur.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("fill q_norm: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": d.ID}).
			SetUpdate(bson.M{"$set": bson.M{"q_norm": norm(d.Question)}}))
	}
	res, err := m.faqs().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("fill q_norm: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func duplicateGroupsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"q_norm": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$q_norm",
			"count": bson.M{"$sum": 1},
			"ids":   bson.M{"$push": "$_id"},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// DuplicateGroups implements Maintainer.
func (m *Mongo) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	cur, err := m.faqs().Aggregate(ctx, duplicateGroupsPipeline())
	if err != nil {
		return nil, fmt.Errorf("duplicate groups: %w", err)
	}
	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("duplicate groups: %w", err)
	}

	out := make([]DuplicateGroup, len(docs))
	for i, d := range docs {
		ids := make([]string, len(d.IDs))
		for j, id := range d.IDs {
			ids[j] = id.Hex()
		}
		out[i] = DuplicateGroup{QNorm: d.QNorm, Count: d.Count, IDs: ids}
	}
	return out, nil
}

// FAQsByNorm implements Maintainer.
func (m *Mongo) FAQsByNorm(ctx context.Context, qNorm string) ([]FAQ, error) {
	cur, err := m.faqs().Find(ctx, bson.M{"q_norm": qNorm},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("faqs by norm: %w", err)
	}
	var docs []faqDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("faqs by norm: %w", err)
	}

	out := make([]FAQ, len(docs))
	for i, d := range docs {
		out[i] = d.toFAQ()
	}
	return out, nil
}

// BackupFAQs copies the raw documents, _id included, so every field
// survives. Documents already in the backup collection are skipped.
func (m *Mongo) BackupFAQs(ctx context.Context, ids []string) (int, error) {
	oids, err := objectIDs(ids)
	if err != nil || len(oids) == 0 {
		return 0, err
	}

	cur, err := m.faqs().Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("backup faqs: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return 0, fmt.Errorf("backup faqs: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}

	docs := make([]any, len(raw))
	for i, d := range raw {
		docs[i] = d
	}
	_, err = m.backup().InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && onlyDuplicateKeys(bwe) {
		return len(docs) - len(bwe.WriteErrors), nil
	}
	return 0, fmt.Errorf("backup faqs: %w", err)
}

func onlyDuplicateKeys(bwe mongo.BulkWriteException) bool {
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

// DeleteFAQs implements Maintainer.
func (m *Mongo) DeleteFAQs(ctx context.Context, ids []string) (int, error) {
	oids, err := objectIDs(ids)
	if err != nil || len(oids) == 0 {
		return 0, err
	}
	res, err := m.faqs().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("delete faqs: %w", err)
	}
	return int(res.DeletedCount), nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: faq id %q", apperrors.ErrInvalidInput, id)
		}
		out = append(out, oid)
	}
	return out, nil
}

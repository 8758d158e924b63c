package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"praktika.org/internal/account"
	"praktika.org/internal/internship"
)

const (
	collAccounts = "accounts"
	collDetails  = "internship_details"
	collReports  = "internship_reports"
)

// Store implements account.Store and internship.Store on MongoDB. Every
// operation is a single-document read or write; upserts use ReplaceOne so
// the stored document always equals the latest submission wholesale.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	_ account.Store    = (*Store)(nil)
	_ internship.Store = (*Store)(nil)
)

// Open connects to MongoDB and ensures the unique indexes the account
// invariants rely on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongo uri is required")
	}
	if strings.TrimSpace(database) == "" {
		database = "praktika"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable; wired into /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collAccounts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// --- account.Store ---

func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	_, err := s.db.Collection(collAccounts).InsertOne(ctx, acc)
	if mongo.IsDuplicateKeyError(err) {
		return account.ErrDuplicate
	}
	return err
}

func (s *Store) Find(ctx context.Context, id string) (*account.Account, error) {
	var acc account.Account
	err := s.db.Collection(collAccounts).FindOne(ctx, bson.M{"_id": id}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	var acc account.Account
	err := s.db.Collection(collAccounts).FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) List(ctx context.Context, role string) ([]*account.Account, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.db.Collection(collAccounts).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []*account.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.Collection(collAccounts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

// --- internship.Store ---

func (s *Store) UpsertDetails(ctx context.Context, rec *internship.Details) error {
	_, err := s.db.Collection(collDetails).ReplaceOne(ctx,
		bson.M{"_id": rec.Identity}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) UpsertReport(ctx context.Context, rec *internship.Report) error {
	_, err := s.db.Collection(collReports).ReplaceOne(ctx,
		bson.M{"_id": rec.Identity}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Details(ctx context.Context, identity string) (*internship.Details, error) {
	var rec internship.Details
	err := s.db.Collection(collDetails).FindOne(ctx, bson.M{"_id": identity}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, internship.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Report(ctx context.Context, identity string) (*internship.Report, error) {
	var rec internship.Report
	err := s.db.Collection(collReports).FindOne(ctx, bson.M{"_id": identity}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, internship.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) DeleteByIdentity(ctx context.Context, identity string) error {
	if _, err := s.db.Collection(collDetails).DeleteOne(ctx, bson.M{"_id": identity}); err != nil {
		return err
	}
	_, err := s.db.Collection(collReports).DeleteOne(ctx, bson.M{"_id": identity})
	return err
}

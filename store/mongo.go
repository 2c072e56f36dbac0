package store

import (
	"context"
	"errors"
	"time"

	"sustainhub-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on top of MongoDB.
type MongoStore struct {
	client *mongo.Client
	issues *mongo.Collection
	users  *mongo.Collection
}

// NewMongoStore wraps the given database. The client is needed separately
// to open sessions for the transition transaction.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		issues: db.Collection("issues"),
		users:  db.Collection("users"),
	}
}

// EnsureIndexes creates the unique email index on users.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := s.users.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (s *MongoStore) InsertIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, err := s.issues.InsertOne(ctx, issue); err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *MongoStore) GetIssue(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Issue{}, ErrIssueNotFound
	}
	if err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *MongoStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.issues.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *MongoStore) ListIssuesByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.issues.Find(ctx, bson.M{"userId": reporterID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// ApplyTransition runs the status write and the reward credit in a single
// session transaction. The issue filter includes the previously observed
// status, so a concurrent transition that already advanced the issue makes
// the filter match nothing and the whole commit aborts with ErrConflict.
func (s *MongoStore) ApplyTransition(ctx context.Context, id primitive.ObjectID, prev, next models.IssueStatus, awardPoints int) (models.Issue, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return models.Issue{}, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()

		filter := bson.M{"_id": id, "status": prev}
		update := bson.M{"$set": bson.M{"status": next, "updatedAt": now}}
		if awardPoints > 0 {
			filter["rewardIssued"] = false
			update["$set"].(bson.M)["rewardIssued"] = true
		}

		var updated models.Issue
		err := s.issues.FindOneAndUpdate(sc, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish a vanished issue from a lost race.
			count, countErr := s.issues.CountDocuments(sc, bson.M{"_id": id})
			if countErr != nil {
				return nil, countErr
			}
			if count == 0 {
				return nil, ErrIssueNotFound
			}
			return nil, ErrConflict
		}
		if err != nil {
			return nil, err
		}

		if awardPoints > 0 {
			res, err := s.users.UpdateOne(sc,
				bson.M{"_id": updated.ReporterID},
				bson.M{
					"$inc": bson.M{"rewardPoints": awardPoints},
					"$set": bson.M{"updatedAt": now},
				})
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, ErrUserNotFound
			}
		}

		return updated, nil
	})
	if err != nil {
		return models.Issue{}, err
	}
	return result.(models.Issue), nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *MongoStore) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{"role": role})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

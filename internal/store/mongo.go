package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/afisha/events/internal/models"
)

// MongoStore handles event CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("events")}
}

// EnsureIndexes creates the indexes the list query relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "category", Value: 1}, {Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

// eventDoc is the stored form of an event.
type eventDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	models.Event `bson:",inline"`
}

func (d *eventDoc) event() models.Event {
	ev := d.Event
	ev.ID = d.ID.Hex()
	return ev
}

func (s *MongoStore) Insert(ctx context.Context, ev *models.Event) error {
	ev.CreatedAt = time.Now().UTC()
	if ev.Attendees == nil {
		ev.Attendees = []string{}
	}
	if ev.LikedBy == nil {
		ev.LikedBy = []string{}
	}
	doc := eventDoc{ID: primitive.NewObjectID(), Event: *ev}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	ev.ID = doc.ID.Hex()
	return nil
}

// filterQuery maps a Filter onto a Mongo query document.
func filterQuery(f *models.Filter) bson.M {
	q := bson.M{}
	if f == nil {
		return q
	}
	date := bson.M{}
	if !f.StartDate.IsZero() {
		date["$gte"] = f.StartDate
	}
	if !f.EndDate.IsZero() {
		date["$lte"] = f.EndDate
	}
	if len(date) > 0 {
		q["date"] = date
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.City != "" {
		q["city"] = f.City
	}
	return q
}

func (s *MongoStore) List(ctx context.Context, f *models.Filter) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.col.Find(ctx, filterQuery(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for i := range docs {
		events = append(events, docs[i].event())
	}
	return events, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc eventDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ev := doc.event()
	return &ev, nil
}

// SetAttendance adds or removes userID from the attendee set. Repeating the same
// direction is a no-op.
func (s *MongoStore) SetAttendance(ctx context.Context, id, userID string, attending bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	op := "$pull"
	if attending {
		op = "$addToSet"
	}
	res, err := s.col.UpdateByID(ctx, oid, bson.M{op: bson.M{"attendees": userID}})
	if err != nil {
		return fmt.Errorf("mongo attendance: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// likeToggle flips userID's membership in liked_by and moves likes by one, in a
// single pipeline update so concurrent toggles by the same user serialise.
func likeToggle(userID string) mongo.Pipeline {
	user := bson.D{{Key: "$literal", Value: userID}}
	likedBy := bson.D{{Key: "$ifNull", Value: bson.A{"$liked_by", bson.A{}}}}
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", 0}}}
	liked := bson.D{{Key: "$in", Value: bson.A{user, likedBy}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
				liked,
				bson.D{{Key: "$subtract", Value: bson.A{likes, 1}}},
				bson.D{{Key: "$add", Value: bson.A{likes, 1}}},
			}}}},
			{Key: "liked_by", Value: bson.D{{Key: "$cond", Value: bson.A{
				liked,
				bson.D{{Key: "$setDifference", Value: bson.A{likedBy, bson.A{user}}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{likedBy, bson.A{user}}}},
			}}}},
		}}},
	}
}

// ToggleLike flips userID's like and returns the new like count.
func (s *MongoStore) ToggleLike(ctx context.Context, id, userID string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrNotFound
	}
	var out struct {
		Likes int `bson:"likes"`
	}
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		likeToggle(userID),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongo like: %w", err)
	}
	return out.Likes, nil
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/afisha/events/internal/models"
)

func TestFilterQuery(t *testing.T) {
	assert.Empty(t, filterQuery(nil))
	assert.Empty(t, filterQuery(&models.Filter{}))

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	q := filterQuery(&models.Filter{StartDate: start, City: models.CityKopeysk})
	assert.Equal(t, bson.M{"$gte": start}, q["date"])
	assert.Equal(t, models.CityKopeysk, q["city"])
	assert.NotContains(t, q, "category")

	end := start.Add(time.Hour)
	q = filterQuery(&models.Filter{StartDate: start, EndDate: end, Category: models.CategorySport})
	assert.Equal(t, bson.M{"$gte": start, "$lte": end}, q["date"])
	assert.Equal(t, models.CategorySport, q["category"])
}

func mockStore(mt *mtest.T) *MongoStore {
	return &MongoStore{col: mt.Coll}
}

func likeResponse(id primitive.ObjectID, likes int, likedBy ...string) bson.D {
	users := bson.A{}
	for _, u := range likedBy {
		users = append(users, u)
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: id},
		{Key: "likes", Value: likes},
		{Key: "liked_by", Value: users},
	}})
}

func TestMongoStore_ToggleLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("like then unlike", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(likeResponse(id, 1, "u-1"), likeResponse(id, 0))

		likes, err := s.ToggleLike(ctx, id.Hex(), "u-1")
		require.NoError(mt, err)
		assert.Equal(mt, 1, likes)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.Equal(mt, id, started.Command.Lookup("query", "_id").ObjectID())
		assert.True(mt, started.Command.Lookup("new").Boolean())
		assert.Equal(mt, "u-1",
			started.Command.Lookup("update", "0", "$set", "likes", "$cond", "0", "$in", "0", "$literal").StringValue())

		likes, err = s.ToggleLike(ctx, id.Hex(), "u-1")
		require.NoError(mt, err)
		assert.Equal(mt, 0, likes)

		// Both directions go through one update, never a second round trip.
		assert.NotNil(mt, mt.GetStartedEvent())
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("unknown event", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.ToggleLike(ctx, primitive.NewObjectID().Hex(), "u-1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		s := mockStore(mt)
		_, err := s.ToggleLike(ctx, "42", "u-1")
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestLikeToggle_UserIsLiteral(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "p", Value: likeToggle("$likes")}})
	require.NoError(t, err)
	lit := bson.Raw(raw).Lookup("p", "0", "$set", "liked_by", "$cond", "2", "$concatArrays", "1", "0", "$literal")
	assert.Equal(t, "$likes", lit.StringValue())
}

func TestMongoStore_SetAttendance(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	matched := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1})
	unchanged := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0})
	missing := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})

	mt.Run("attend twice", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(matched, unchanged)

		require.NoError(mt, s.SetAttendance(ctx, id.Hex(), "u-1", true))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.Equal(mt, id, started.Command.Lookup("updates", "0", "q", "_id").ObjectID())
		assert.Equal(mt, "u-1", started.Command.Lookup("updates", "0", "u", "$addToSet", "attendees").StringValue())

		// A repeat matches the event but changes nothing, which is still success.
		require.NoError(mt, s.SetAttendance(ctx, id.Hex(), "u-1", true))
	})

	mt.Run("withdraw", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(matched)

		require.NoError(mt, s.SetAttendance(ctx, id.Hex(), "u-1", false))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "u-1", started.Command.Lookup("updates", "0", "u", "$pull", "attendees").StringValue())
	})

	mt.Run("unknown event", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(missing, missing)

		assert.ErrorIs(mt, s.SetAttendance(ctx, id.Hex(), "u-1", true), ErrNotFound)
		assert.ErrorIs(mt, s.SetAttendance(ctx, id.Hex(), "u-1", false), ErrNotFound)
	})
}

func TestMongoStore_InsertAndList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert assigns a hex id", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		ev := &models.Event{Title: "Джазовый вечер", City: models.CityKopeysk}
		require.NoError(mt, s.Insert(ctx, ev))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		stored := started.Command.Lookup("documents", "0")
		assert.Equal(mt, ev.ID, stored.Document().Lookup("_id").ObjectID().Hex())
		_, err := stored.Document().LookupErr("id")
		assert.Error(mt, err)
		assert.NotNil(mt, ev.Attendees)
		assert.False(mt, ev.CreatedAt.IsZero())
	})

	mt.Run("list and get expose hex ids", func(mt *mtest.T) {
		s := mockStore(mt)
		id := primitive.NewObjectID()
		doc := bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "Джазовый вечер"},
			{Key: "city", Value: string(models.CityKopeysk)},
			{Key: "likes", Value: 3},
		}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, doc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, doc),
		)

		evs, err := s.List(ctx, nil)
		require.NoError(mt, err)
		require.Len(mt, evs, 1)
		assert.Equal(mt, id.Hex(), evs[0].ID)
		assert.Equal(mt, 3, evs[0].Likes)

		ev, err := s.GetByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), ev.ID)
	})

	mt.Run("get unknown id", func(mt *mtest.T) {
		s := mockStore(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.GetByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

package mongo

import (
	"context"
	"fmt"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxUpdateRetries = 10

type mongoInstance struct {
	c    *mongo.Client
	coll *mongo.Collection
}

func (i *mongoInstance) Ping(ctx context.Context) error {
	return i.c.Ping(ctx, nil)
}

func (i *mongoInstance) Close(ctx context.Context) error {
	return i.c.Disconnect(ctx)
}

func (i *mongoInstance) Insert(ctx context.Context, p datastructures.VoiceProfile) error {
	_, err := i.coll.InsertOne(ctx, p)
	return err
}

func (i *mongoInstance) Get(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	p := datastructures.VoiceProfile{}
	res := i.coll.FindOne(ctx, bson.M{"_id": id})
	err := res.Err()
	if err == nil {
		err = res.Decode(&p)
	}
	if err == mongo.ErrNoDocuments {
		err = instances.ErrNotFound
	}
	return p, err
}

func (i *mongoInstance) List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error) {
	out := []datastructures.VoiceProfile{}
	cur, err := i.coll.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err == nil {
		err = cur.All(ctx, &out)
	}
	return out, err
}

// Update replaces the document only if it is unchanged since it was read, and retries otherwise.
func (i *mongoInstance) Update(ctx context.Context, id string, fn func(p *datastructures.VoiceProfile) error) (datastructures.VoiceProfile, error) {
	for n := 0; n < maxUpdateRetries; n++ {
		p, err := i.Get(ctx, id)
		if err != nil {
			return p, err
		}

		filter := bson.M{"_id": id, "status": p.Status, "updated_at": p.UpdatedAt}
		if err = fn(&p); err != nil {
			return p, err
		}

		res, err := i.coll.ReplaceOne(ctx, filter, p)
		if err != nil {
			return p, err
		}
		if res.MatchedCount == 1 {
			return p, nil
		}
	}

	return datastructures.VoiceProfile{}, fmt.Errorf("update of %s kept conflicting", id)
}

func (i *mongoInstance) Delete(ctx context.Context, id string) error {
	res, err := i.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return instances.ErrNotFound
	}
	return nil
}

type Instance interface {
	instances.ProfileStore
	Close(ctx context.Context) error
}

func NewInstance(ctx context.Context, uri, db, collection string) (Instance, error) {
	c, err := mongo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	i := &mongoInstance{
		c:    c,
		coll: c.Database(db).Collection(collection),
	}

	if err = c.Connect(ctx); err != nil {
		return nil, err
	}

	if err = i.Ping(ctx); err != nil {
		return nil, err
	}

	if _, err = i.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workspace_id", Value: 1}},
	}); err != nil {
		return nil, err
	}

	return i, nil
}

package repository

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taste_match/models"
	"taste_match/utils"
)

// MongoScoreCache 每个 (pairing, holder) 一份文档：
//
//	{_id: "user_restaurant:7", pairing, holder_id, scores: {"42": {state_hash, holder_version, partner_version, score, updated_at}}}
//
// scores 以 partner id 为键，替换条目只需一次 $set，不存在先删后插的竞争窗口。
type MongoScoreCache struct {
	coll *mongo.Collection
}

func NewMongoScoreCache(coll *mongo.Collection) *MongoScoreCache {
	return &MongoScoreCache{coll: coll}
}

type scoreDocument struct {
	Scores map[string]models.CacheEntry `bson:"scores"`
}

func cacheDocID(pairing models.Pairing, holderID int64) string {
	return fmt.Sprintf("%s:%d", pairing, holderID)
}

func entryPath(partnerID int64) string {
	return "scores." + strconv.FormatInt(partnerID, 10)
}

func (c *MongoScoreCache) FindEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, hash models.StateHash) (models.CacheEntry, bool, error) {
	path := entryPath(partnerID)
	filter := bson.M{
		"_id":                    cacheDocID(pairing, holderID),
		path + ".state_hash":     hash.Product(),
		path + ".holder_version": hash.HolderVersion,
	}
	opts := options.FindOne().SetProjection(bson.M{path: 1})

	var doc scoreDocument
	if err := c.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if utils.IsMongoNoDocuments(err) {
			return models.CacheEntry{}, false, nil
		}
		return models.CacheEntry{}, false, err
	}

	entry, ok := doc.Scores[strconv.FormatInt(partnerID, 10)]
	if !ok || !entry.Matches(hash) {
		return models.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (c *MongoScoreCache) ReplaceEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, entry models.CacheEntry) error {
	update := bson.M{
		"$set": bson.M{
			"pairing":            string(pairing),
			"holder_id":          holderID,
			entryPath(partnerID): entry,
		},
	}
	_, err := c.coll.UpdateOne(ctx, bson.M{"_id": cacheDocID(pairing, holderID)}, update, options.Update().SetUpsert(true))
	return err
}

package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taste_match/models"
	"taste_match/utils"
)

// profileDocument 画像文档。餐厅画像的 id 字段有 restaurant_id 和 r_id 两种写法
type profileDocument struct {
	UserID       *int64 `bson:"user_id,omitempty"`
	RestaurantID *int64 `bson:"restaurant_id,omitempty"`
	RID          *int64 `bson:"r_id,omitempty"`
	Keywords     any    `bson:"keywords"`
}

func (d profileDocument) id(kind models.EntityKind) (int64, bool) {
	if kind == models.EntityUser {
		if d.UserID != nil {
			return *d.UserID, true
		}
		return 0, false
	}
	if d.RestaurantID != nil {
		return *d.RestaurantID, true
	}
	if d.RID != nil {
		return *d.RID, true
	}
	return 0, false
}

// raw 逐条转换 keywords。非文档元素（旧数据里的字符串、数字、null）保留为 nil 占位，
// 由 Canonicalize 丢弃并计入 dropped；keywords 本身不是数组时视为空画像
func (d profileDocument) raw() []models.RawKeyword {
	items, ok := d.Keywords.(bson.A)
	if !ok {
		return []models.RawKeyword{}
	}
	out := make([]models.RawKeyword, 0, len(items))
	for _, item := range items {
		out = append(out, keywordDocument(item))
	}
	return out
}

func keywordDocument(item any) models.RawKeyword {
	switch doc := item.(type) {
	case bson.D:
		m := make(models.RawKeyword, len(doc))
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		return m
	case bson.M:
		return models.RawKeyword(doc)
	case map[string]any:
		return models.RawKeyword(doc)
	}
	return nil
}

// MongoProfileStore 读取 user_keywords / restaurant_keywords 集合
type MongoProfileStore struct {
	users       *mongo.Collection
	restaurants *mongo.Collection
}

func NewMongoProfileStore(users, restaurants *mongo.Collection) *MongoProfileStore {
	return &MongoProfileStore{users: users, restaurants: restaurants}
}

var profileProjection = bson.M{"_id": 0, "user_id": 1, "restaurant_id": 1, "r_id": 1, "keywords": 1}

func (s *MongoProfileStore) collection(kind models.EntityKind) (*mongo.Collection, error) {
	switch kind {
	case models.EntityUser:
		return s.users, nil
	case models.EntityRestaurant:
		return s.restaurants, nil
	}
	return nil, fmt.Errorf("repository: unknown entity kind %q", kind)
}

func idFilter(kind models.EntityKind, match any) bson.M {
	if kind == models.EntityUser {
		return bson.M{"user_id": match}
	}
	return bson.M{"$or": bson.A{
		bson.M{"restaurant_id": match},
		bson.M{"r_id": match},
	}}
}

func (s *MongoProfileStore) GetProfile(ctx context.Context, kind models.EntityKind, id int64) ([]models.RawKeyword, error) {
	coll, err := s.collection(kind)
	if err != nil {
		return nil, err
	}

	var doc profileDocument
	opts := options.FindOne().SetProjection(profileProjection)
	if err := coll.FindOne(ctx, idFilter(kind, id), opts).Decode(&doc); err != nil {
		if utils.IsMongoNoDocuments(err) {
			return []models.RawKeyword{}, nil
		}
		return nil, err
	}
	return doc.raw(), nil
}

func (s *MongoProfileStore) GetProfiles(ctx context.Context, kind models.EntityKind, ids []int64) (map[int64][]models.RawKeyword, error) {
	out := make(map[int64][]models.RawKeyword, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	coll, err := s.collection(kind)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, idFilter(kind, bson.M{"$in": ids}), options.Find().SetProjection(profileProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc profileDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		id, ok := doc.id(kind)
		if !ok {
			continue
		}
		// 同一实体存在多份文档时保留第一份非空画像
		if existing := out[id]; len(existing) > 0 {
			continue
		}
		out[id] = doc.raw()
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = []models.RawKeyword{}
		}
	}
	return out, nil
}

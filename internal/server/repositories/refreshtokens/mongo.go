package refreshtokens

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding refresh token documents.
const CollectionName = "refresh_tokens"

type tokenDoc struct {
	ID             string     `bson:"_id"`
	UserID         string     `bson:"user_id"`
	Token          string     `bson:"token"`
	DeviceBrowser  string     `bson:"device_browser"`
	DeviceOS       string     `bson:"device_os"`
	DevicePlatform string     `bson:"device_platform"`
	DeviceSource   string     `bson:"device_source"`
	IPAddress      string     `bson:"ip_address"`
	ExpiresAt      time.Time  `bson:"expires_at"`
	Revoked        bool       `bson:"revoked"`
	RevokedAt      *time.Time `bson:"revoked_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
}

func toTokenDoc(t *models.RefreshToken) tokenDoc {
	return tokenDoc{
		ID:             t.ID,
		UserID:         t.UserID,
		Token:          t.Token,
		DeviceBrowser:  t.Device.Browser,
		DeviceOS:       t.Device.OS,
		DevicePlatform: t.Device.Platform,
		DeviceSource:   t.Device.Source,
		IPAddress:      t.IPAddress,
		ExpiresAt:      t.ExpiresAt,
		Revoked:        t.Revoked,
		RevokedAt:      t.RevokedAt,
		CreatedAt:      t.CreatedAt,
	}
}

func (d *tokenDoc) model() *models.RefreshToken {
	return &models.RefreshToken{
		ID:     d.ID,
		UserID: d.UserID,
		Token:  d.Token,
		Device: models.DeviceInfo{
			Browser:  d.DeviceBrowser,
			OS:       d.DeviceOS,
			Platform: d.DevicePlatform,
			Source:   d.DeviceSource,
		},
		IPAddress: d.IPAddress,
		ExpiresAt: d.ExpiresAt,
		Revoked:   d.Revoked,
		RevokedAt: d.RevokedAt,
		CreatedAt: d.CreatedAt,
	}
}

// Indexes include a TTL index, so MongoDB drops expired records on its own
// in addition to PurgeExpired.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("refresh_tokens_token_key"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("refresh_tokens_user_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("refresh_tokens_expires_at_ttl").SetExpireAfterSeconds(0),
		},
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toTokenDoc(t)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var doc tokenDoc
	err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func revokeUpdate(at time.Time) bson.M {
	return bson.M{"$set": bson.M{"revoked": true, "revoked_at": at}}
}

func revokeFilter(token, userID string) bson.M {
	filter := bson.M{"token": token, "revoked": false}
	if userID != "" {
		filter["user_id"] = userID
	}
	return filter
}

func (r *MongoRepository) Revoke(ctx context.Context, token, userID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx, revokeFilter(token, userID), revokeUpdate(at))
	return err
}

func (r *MongoRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx, bson.M{"user_id": userID, "revoked": false}, revokeUpdate(at))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func activeFilter(userID string, now time.Time) bson.M {
	filter := bson.M{"revoked": false, "expires_at": bson.M{"$gt": now}}
	if userID != "" {
		filter["user_id"] = userID
	}
	return filter
}

func (r *MongoRepository) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	n, err := r.coll.CountDocuments(ctx, activeFilter(userID, now))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *MongoRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

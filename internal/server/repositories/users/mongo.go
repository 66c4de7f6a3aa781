package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding user documents.
const CollectionName = "users"

type userDoc struct {
	ID              string `bson:"_id"`
	Name            string `bson:"name"`
	Email           string `bson:"email"`
	PasswordHash    string `bson:"password_hash"`
	Role            string `bson:"role"`
	IsEmailVerified bool   `bson:"is_email_verified"`
	ProfilePicture  string `bson:"profile_picture"`

	EmailVerificationOTP     string     `bson:"email_verification_otp,omitempty"`
	EmailVerificationExpires *time.Time `bson:"email_verification_expires,omitempty"`

	PasswordResetOTP     string     `bson:"password_reset_otp,omitempty"`
	PasswordResetToken   string     `bson:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time `bson:"password_reset_expires,omitempty"`

	TwoFactorSecret  string `bson:"two_factor_secret,omitempty"`
	TwoFactorEnabled bool   `bson:"two_factor_enabled"`

	LastLogin       *time.Time `bson:"last_login,omitempty"`
	LastLoginDevice string     `bson:"last_login_device,omitempty"`

	LoginAttempts int        `bson:"login_attempts"`
	LockUntil     *time.Time `bson:"lock_until,omitempty"`

	IsSuspended      bool       `bson:"is_suspended"`
	SuspendedAt      *time.Time `bson:"suspended_at,omitempty"`
	SuspendedBy      string     `bson:"suspended_by,omitempty"`
	SuspensionReason string     `bson:"suspension_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:                       u.ID,
		Name:                     u.Name,
		Email:                    u.Email,
		PasswordHash:             u.PasswordHash,
		Role:                     string(u.Role),
		IsEmailVerified:          u.IsEmailVerified,
		ProfilePicture:           u.ProfilePicture,
		EmailVerificationOTP:     u.EmailVerificationOTP,
		EmailVerificationExpires: u.EmailVerificationExpires,
		PasswordResetOTP:         u.PasswordResetOTP,
		PasswordResetToken:       u.PasswordResetToken,
		PasswordResetExpires:     u.PasswordResetExpires,
		TwoFactorSecret:          u.TwoFactorSecret,
		TwoFactorEnabled:         u.TwoFactorEnabled,
		LastLogin:                u.LastLogin,
		LastLoginDevice:          u.LastLoginDevice,
		LoginAttempts:            u.LoginAttempts,
		LockUntil:                u.LockUntil,
		IsSuspended:              u.IsSuspended,
		SuspendedAt:              u.SuspendedAt,
		SuspendedBy:              u.SuspendedBy,
		SuspensionReason:         u.SuspensionReason,
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:                       d.ID,
		Name:                     d.Name,
		Email:                    d.Email,
		PasswordHash:             d.PasswordHash,
		Role:                     models.Role(d.Role),
		IsEmailVerified:          d.IsEmailVerified,
		ProfilePicture:           d.ProfilePicture,
		EmailVerificationOTP:     d.EmailVerificationOTP,
		EmailVerificationExpires: d.EmailVerificationExpires,
		PasswordResetOTP:         d.PasswordResetOTP,
		PasswordResetToken:       d.PasswordResetToken,
		PasswordResetExpires:     d.PasswordResetExpires,
		TwoFactorSecret:          d.TwoFactorSecret,
		TwoFactorEnabled:         d.TwoFactorEnabled,
		LastLogin:                d.LastLogin,
		LastLoginDevice:          d.LastLoginDevice,
		LoginAttempts:            d.LoginAttempts,
		LockUntil:                d.LockUntil,
		IsSuspended:              d.IsSuspended,
		SuspendedAt:              d.SuspendedAt,
		SuspendedBy:              d.SuspendedBy,
		SuspensionReason:         d.SuspensionReason,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}

// Indexes are created by the Mongo repository manager on startup.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_key"),
		},
		{
			Keys: bson.D{{Key: "password_reset_token", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("users_password_reset_token_key").
				SetPartialFilterExpression(bson.M{"password_reset_token": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("users_created_at_idx"),
		},
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if _, err := r.coll.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"password_reset_token": token})
}

func (r *MongoRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

var mongoSortFields = map[string]string{
	SortByCreatedAt: "created_at",
	SortByName:      "name",
	SortByEmail:     "email",
	SortByLastLogin: "last_login",
}

func listFilterDoc(f ListFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Verified != nil {
		filter["is_email_verified"] = *f.Verified
	}
	if f.Suspended != nil {
		filter["is_suspended"] = *f.Suspended
	}
	return filter
}

func listSortDoc(f ListFilter) bson.D {
	field, ok := mongoSortFields[f.SortBy]
	if !ok {
		field = mongoSortFields[SortByCreatedAt]
	}
	dir := -1
	if f.SortAsc {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

func countFilterDoc(f CountFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Verified != nil {
		filter["is_email_verified"] = *f.Verified
	}
	if f.Suspended != nil {
		filter["is_suspended"] = *f.Suspended
	}
	if f.CreatedSince != nil {
		filter["created_at"] = bson.M{"$gte": *f.CreatedSince}
	}
	return filter
}

func (r *MongoRepository) List(ctx context.Context, f ListFilter) ([]*models.User, int, error) {
	filter := listFilterDoc(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().SetSort(listSortDoc(f)).SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	result := make([]*models.User, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].model())
	}
	return result, int(total), nil
}

func (r *MongoRepository) Count(ctx context.Context, f CountFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, countFilterDoc(f))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

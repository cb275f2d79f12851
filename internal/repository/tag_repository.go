package repository

import (
	"context"
	"errors"
	"fmt"

	"tagvault-sync-server/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names for the two tag namespaces. Part of the schema contract.
const (
	OwnedTagsCollection  = "tags"
	SharedTagsCollection = "shared_tags"
)

// UpdateOutcome classifies the result of a timestamp-gated update.
type UpdateOutcome int

const (
	// UpdateApplied means exactly one record was matched and modified.
	UpdateApplied UpdateOutcome = iota
	// UpdateRejectedStale means the record exists but a write with an equal
	// or higher timestamp already landed, or the write changed nothing.
	UpdateRejectedStale
	// UpdateNotFound means no active record matched (id, userId).
	UpdateNotFound
)

// TagRepository is one tag namespace. Owned and shared tags share the exact
// same behavior; only the backing collection differs, so both are instances
// of this interface over different collections.
type TagRepository interface {
	Insert(ctx context.Context, tag *domain.Tag) error
	InsertBatch(ctx context.Context, tags []*domain.Tag) error

	// ApplyUpdate is the timestamp-gated writer. It applies changes plus
	// updateTs=candidateTs in a single conditional storage operation and
	// never writes anything when the gate rejects.
	ApplyUpdate(ctx context.Context, tagID, userID string, changes *domain.TagChanges, candidateTs int64) (UpdateOutcome, error)

	SoftDelete(ctx context.Context, tagID, userID string, deleteTs int64) (bool, error)
	HardDelete(ctx context.Context, tagID, userID string) (bool, error)
	HardDeleteAll(ctx context.Context, userID string) (int64, error)

	FindActive(ctx context.Context, userID string) ([]*domain.Tag, error)
	FindAllForSync(ctx context.Context, userID string) ([]*domain.Tag, error)
	FindChangedSince(ctx context.Context, userID string, since int64) ([]*domain.Tag, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error)
	FindByUserFiltered(ctx context.Context, userID string, ids []string) ([]*domain.Tag, error)
}

type tagRepository struct {
	col *mongo.Collection
}

func NewTagRepository(db *mongo.Database, collection string) TagRepository {
	return &tagRepository{col: db.Collection(collection)}
}

// EnsureTagIndexes creates the unique id index both namespaces rely on.
func EnsureTagIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{OwnedTagsCollection, SharedTagsCollection} {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "deleted", Value: 1}},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// gateFilter matches the active record iff the candidate timestamp is newer
// than anything already committed. A null updateTs means the record has never
// been updated and always loses to a candidate.
func gateFilter(tagID, userID string, candidateTs int64) bson.M {
	return bson.M{
		"id":      tagID,
		"userId":  userID,
		"deleted": false,
		"$or": bson.A{
			bson.M{"updateTs": nil},
			bson.M{"updateTs": bson.M{"$lt": candidateTs}},
		},
	}
}

func gateUpdate(changes *domain.TagChanges, candidateTs int64) bson.M {
	return bson.M{
		"$set": bson.M{
			"text":          changes.Text,
			"encKey":        changes.EncKey,
			"encConfig":     changes.EncConfig,
			"schemaVersion": changes.SchemaVersion,
			"updateTs":      candidateTs,
		},
	}
}

// activeProjection is the restricted read-path field set: provenance
// bookkeeping stays out. Sync and backup paths return the full record.
func activeProjection() bson.M {
	return bson.M{"_id": 0, "deviceId": 0, "localId": 0}
}

func fullProjection() bson.M {
	return bson.M{"_id": 0}
}

func (r *tagRepository) Insert(ctx context.Context, tag *domain.Tag) error {
	if _, err := r.col.InsertOne(ctx, tag); err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// InsertBatch walks the records in order and stops at the first failed
// insert. Records inserted before the failure stay; there is no transaction
// around the batch.
func (r *tagRepository) InsertBatch(ctx context.Context, tags []*domain.Tag) error {
	for i, tag := range tags {
		if _, err := r.col.InsertOne(ctx, tag); err != nil {
			return fmt.Errorf("batch insert failed at record %d (id=%s): %w", i, tag.ID, err)
		}
	}
	return nil
}

func (r *tagRepository) ApplyUpdate(ctx context.Context, tagID, userID string, changes *domain.TagChanges, candidateTs int64) (UpdateOutcome, error) {
	res, err := r.col.UpdateOne(ctx, gateFilter(tagID, userID, candidateTs), gateUpdate(changes, candidateTs))
	if err != nil {
		return UpdateNotFound, fmt.Errorf("failed to apply gated update: %w", err)
	}

	if res.MatchedCount == 1 && res.ModifiedCount == 1 {
		return UpdateApplied, nil
	}

	// The gate rejected. A follow-up read only classifies the rejection for
	// the caller; the conditional update above is the sole write path.
	err = r.col.FindOne(ctx,
		bson.M{"id": tagID, "userId": userID, "deleted": false},
		options.FindOne().SetProjection(bson.M{"id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UpdateNotFound, nil
	}
	if err != nil {
		return UpdateNotFound, fmt.Errorf("failed to classify rejected update: %w", err)
	}
	return UpdateRejectedStale, nil
}

// SoftDelete tombstones the record unconditionally: deletion always wins
// over concurrent content edits, so there is no timestamp gate here and a
// stale update can never resurrect the tombstone.
func (r *tagRepository) SoftDelete(ctx context.Context, tagID, userID string, deleteTs int64) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"id": tagID, "userId": userID, "deleted": false},
		bson.M{"$set": bson.M{
			"deleted":   true,
			"text":      "",
			"encKey":    "",
			"encConfig": "",
			"deleteTs":  deleteTs,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete tag: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *tagRepository) HardDelete(ctx context.Context, tagID, userID string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": tagID, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("failed to hard delete tag: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *tagRepository) HardDeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to hard delete tags: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *tagRepository) FindActive(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return r.findTags(ctx,
		bson.M{"userId": userID, "deleted": false},
		activeProjection(),
	)
}

// FindAllForSync returns every record including tombstones with the full
// field set, so devices can detect and apply remote deletions locally.
func (r *tagRepository) FindAllForSync(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return r.findTags(ctx,
		bson.M{"userId": userID},
		fullProjection(),
	)
}

func (r *tagRepository) FindChangedSince(ctx context.Context, userID string, since int64) ([]*domain.Tag, error) {
	return r.findTags(ctx,
		bson.M{
			"userId": userID,
			"$or": bson.A{
				bson.M{"createTs": bson.M{"$gt": since}},
				bson.M{"updateTs": bson.M{"$gt": since}},
				bson.M{"deleteTs": bson.M{"$gt": since}},
			},
		},
		fullProjection(),
	)
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error) {
	return r.findTags(ctx,
		bson.M{"id": bson.M{"$in": ids}, "deleted": false},
		activeProjection(),
	)
}

func (r *tagRepository) FindByUserFiltered(ctx context.Context, userID string, ids []string) ([]*domain.Tag, error) {
	return r.findTags(ctx,
		bson.M{
			"id":       bson.M{"$in": ids},
			"userId":   userID,
			"deleted":  false,
			"archived": false,
			"recycled": false,
		},
		activeProjection(),
	)
}

func (r *tagRepository) findTags(ctx context.Context, filter, projection bson.M) ([]*domain.Tag, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer cur.Close(ctx)

	var tags []*domain.Tag
	if err := cur.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

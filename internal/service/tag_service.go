package service

import (
	"context"
	"time"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"

	"github.com/google/uuid"
)

// TagService is the lifecycle manager for a tag namespace: create, bulk
// import, gated content updates, tombstoning, and physical removal. The
// owned and shared namespaces each get an instance over their repository.
type TagService struct {
	repo        repository.TagRepository
	syncService *SyncService
}

func NewTagService(repo repository.TagRepository, syncService *SyncService) *TagService {
	return &TagService{
		repo:        repo,
		syncService: syncService,
	}
}

func (s *TagService) Create(ctx context.Context, userID string, req *domain.CreateTagRequest) (*domain.Tag, error) {
	createTs := req.CreateTs
	if createTs == 0 {
		createTs = time.Now().UnixMilli()
	}

	// Seed updateTs with the creation timestamp so the gate rejects edits
	// that predate the record itself.
	tag := &domain.Tag{
		ID:            uuid.New().String(),
		DeviceID:      req.DeviceID,
		LocalID:       req.LocalID,
		UserID:        userID,
		Text:          req.Text,
		EncKey:        req.EncKey,
		EncConfig:     req.EncConfig,
		CreateTs:      createTs,
		UpdateTs:      &createTs,
		SchemaVersion: req.SchemaVersion,
	}

	if err := s.repo.Insert(ctx, tag); err != nil {
		return nil, err
	}

	if s.syncService != nil {
		s.syncService.BroadcastTagUpdate(userID, req.DeviceID, tag)
	}

	return tag, nil
}

// BulkImport inserts a batch, e.g. from a backup restore. The walk stops at
// the first failed insert and the whole batch reports failure; records
// inserted before that point are not rolled back.
func (s *TagService) BulkImport(ctx context.Context, userID string, tags []*domain.Tag) error {
	for _, tag := range tags {
		tag.UserID = userID
	}
	return s.repo.InsertBatch(ctx, tags)
}

// UpdateDetails routes a content edit through the timestamp-gated writer.
// A zero update_ts means the caller did not supply one and the server clock
// is used; sync reconciliation callers always pass an explicit timestamp.
func (s *TagService) UpdateDetails(ctx context.Context, userID, tagID string, req *domain.UpdateTagRequest) (repository.UpdateOutcome, error) {
	candidateTs := req.UpdateTs
	if candidateTs == 0 {
		candidateTs = time.Now().UnixMilli()
	}

	changes := &domain.TagChanges{
		Text:          req.Text,
		EncKey:        req.EncKey,
		EncConfig:     req.EncConfig,
		SchemaVersion: req.SchemaVersion,
	}

	outcome, err := s.repo.ApplyUpdate(ctx, tagID, userID, changes, candidateTs)
	if err != nil {
		return outcome, err
	}

	if outcome == repository.UpdateApplied && s.syncService != nil {
		s.syncService.BroadcastTagUpdate(userID, req.DeviceID, &domain.Tag{
			ID:            tagID,
			UserID:        userID,
			Text:          req.Text,
			EncKey:        req.EncKey,
			EncConfig:     req.EncConfig,
			SchemaVersion: req.SchemaVersion,
			UpdateTs:      &candidateTs,
		})
	}

	return outcome, nil
}

// SoftDelete tombstones a tag. Unlike content edits this is not gated by the
// timestamp rule: deletion always wins, so a stale edit can never bring a
// tombstone back.
func (s *TagService) SoftDelete(ctx context.Context, userID, tagID string, req *domain.DeleteTagRequest) (bool, error) {
	deleteTs := req.DeleteTs
	if deleteTs == 0 {
		deleteTs = time.Now().UnixMilli()
	}

	deleted, err := s.repo.SoftDelete(ctx, tagID, userID, deleteTs)
	if err != nil {
		return false, err
	}

	if deleted && s.syncService != nil {
		s.syncService.BroadcastTagDelete(userID, req.DeviceID, tagID, deleteTs)
	}

	return deleted, nil
}

// HardDelete physically removes a tag, tombstone or not. No timestamp check
// and no trace for sync: a device that has not synced simply finds the
// record gone on its next full fetch.
func (s *TagService) HardDelete(ctx context.Context, userID, tagID string) (bool, error) {
	return s.repo.HardDelete(ctx, tagID, userID)
}

func (s *TagService) HardDeleteAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.HardDeleteAll(ctx, userID)
}

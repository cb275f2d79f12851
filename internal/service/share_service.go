package service

import (
	"context"
	"time"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"

	"github.com/google/uuid"
)

// ShareService is the gateway into the shared-tag namespace. Sharing takes a
// point-in-time copy of a tag's payload and inserts it under the recipient's
// identity with a fresh id; the owner's original is never referenced again,
// so edits on either side stay independent until the caller re-shares.
type ShareService struct {
	repo        repository.TagRepository
	syncService *SyncService
}

func NewShareService(repo repository.TagRepository, syncService *SyncService) *ShareService {
	return &ShareService{
		repo:        repo,
		syncService: syncService,
	}
}

func (s *ShareService) AddShared(ctx context.Context, req *domain.ShareTagRequest) (*domain.Tag, error) {
	createTs := req.CreateTs
	if createTs == 0 {
		createTs = time.Now().UnixMilli()
	}

	tag := &domain.Tag{
		ID:            uuid.New().String(),
		DeviceID:      req.DeviceID,
		LocalID:       req.LocalID,
		UserID:        req.RecipientUserID,
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
		s.syncService.BroadcastTagUpdate(req.RecipientUserID, req.DeviceID, tag)
	}

	return tag, nil
}

// UpdateShared and the delete operations below mirror the owned-tag
// lifecycle one-to-one against the shared collection, scoped by the
// recipient's userId.
func (s *ShareService) UpdateShared(ctx context.Context, recipientID, tagID string, req *domain.UpdateTagRequest) (repository.UpdateOutcome, error) {
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

	outcome, err := s.repo.ApplyUpdate(ctx, tagID, recipientID, changes, candidateTs)
	if err != nil {
		return outcome, err
	}

	if outcome == repository.UpdateApplied && s.syncService != nil {
		s.syncService.BroadcastTagUpdate(recipientID, req.DeviceID, &domain.Tag{
			ID:            tagID,
			UserID:        recipientID,
			Text:          req.Text,
			EncKey:        req.EncKey,
			EncConfig:     req.EncConfig,
			SchemaVersion: req.SchemaVersion,
			UpdateTs:      &candidateTs,
		})
	}

	return outcome, nil
}

func (s *ShareService) SoftDeleteShared(ctx context.Context, recipientID, tagID string, req *domain.DeleteTagRequest) (bool, error) {
	deleteTs := req.DeleteTs
	if deleteTs == 0 {
		deleteTs = time.Now().UnixMilli()
	}

	deleted, err := s.repo.SoftDelete(ctx, tagID, recipientID, deleteTs)
	if err != nil {
		return false, err
	}

	if deleted && s.syncService != nil {
		s.syncService.BroadcastTagDelete(recipientID, req.DeviceID, tagID, deleteTs)
	}

	return deleted, nil
}

func (s *ShareService) HardDeleteShared(ctx context.Context, recipientID, tagID string) (bool, error) {
	return s.repo.HardDelete(ctx, tagID, recipientID)
}

func (s *ShareService) HardDeleteAllShared(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.HardDeleteAll(ctx, recipientID)
}

package service

import (
	"context"
	"time"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"
	"tagvault-sync-server/internal/websocket"
)

// SyncService is the reconciler devices call to converge on the server's
// authoritative state. Read paths differ deliberately in what they expose:
// normal reads use the restricted projection, sync and backup reads return
// the full record set including tombstones.
type SyncService struct {
	ownedRepo  repository.TagRepository
	sharedRepo repository.TagRepository
	wsManager  *websocket.Manager
}

func NewSyncService(ownedRepo, sharedRepo repository.TagRepository, wsManager *websocket.Manager) *SyncService {
	return &SyncService{
		ownedRepo:  ownedRepo,
		sharedRepo: sharedRepo,
		wsManager:  wsManager,
	}
}

// FetchActive is the normal read path: tombstones excluded, provenance
// fields projected out.
func (s *SyncService) FetchActive(ctx context.Context, userID string) ([]*domain.TagResponse, error) {
	tags, err := s.ownedRepo.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(tags), nil
}

// FetchAllForSync returns every record including tombstones with the full
// field set. Devices apply remote deletions locally from the tombstones and
// then re-derive their local state.
func (s *SyncService) FetchAllForSync(ctx context.Context, userID string) (*domain.SyncResponse, error) {
	tags, err := s.ownedRepo.FindAllForSync(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.SyncResponse{
		Tags:     tags,
		SyncTime: time.Now().UnixMilli(),
	}, nil
}

// FetchChangedSince is the incremental variant: records created, updated, or
// tombstoned after the watermark, full field set.
func (s *SyncService) FetchChangedSince(ctx context.Context, userID string, since int64) (*domain.SyncResponse, error) {
	tags, err := s.ownedRepo.FindChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return &domain.SyncResponse{
		Tags:     tags,
		SyncTime: time.Now().UnixMilli(),
	}, nil
}

// FetchSharedByIDs bulk-fetches shared tags a device already knows the
// identifiers of. Soft-deleted records are excluded.
func (s *SyncService) FetchSharedByIDs(ctx context.Context, ids []string) ([]*domain.TagResponse, error) {
	tags, err := s.sharedRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toResponses(tags), nil
}

// FetchSharedByUserFiltered answers "what is this user currently showing
// me": scoped by user and excluding archived, recycled, and deleted records.
func (s *SyncService) FetchSharedByUserFiltered(ctx context.Context, userID string, ids []string) ([]*domain.TagResponse, error) {
	tags, err := s.sharedRepo.FindByUserFiltered(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	return toResponses(tags), nil
}

func (s *SyncService) BroadcastTagUpdate(userID, deviceID string, tag *domain.Tag) error {
	if s.wsManager == nil {
		return nil
	}

	var updateTs int64
	if tag.UpdateTs != nil {
		updateTs = *tag.UpdateTs
	} else {
		updateTs = tag.CreateTs
	}

	msg, err := websocket.NewMessage(websocket.TypeTagUpdate, &websocket.TagUpdatePayload{
		TagID:         tag.ID,
		Text:          tag.Text,
		EncKey:        tag.EncKey,
		EncConfig:     tag.EncConfig,
		SchemaVersion: tag.SchemaVersion,
		UpdateTs:      updateTs,
		DeviceID:      deviceID,
	})
	if err != nil {
		return err
	}

	return s.wsManager.BroadcastToUser(userID, msg, deviceID)
}

func (s *SyncService) BroadcastTagDelete(userID, deviceID, tagID string, deleteTs int64) error {
	if s.wsManager == nil {
		return nil
	}

	msg, err := websocket.NewMessage(websocket.TypeTagDelete, &websocket.TagDeletePayload{
		TagID:    tagID,
		DeleteTs: deleteTs,
		DeviceID: deviceID,
	})
	if err != nil {
		return err
	}

	return s.wsManager.BroadcastToUser(userID, msg, deviceID)
}

func toResponses(tags []*domain.Tag) []*domain.TagResponse {
	responses := make([]*domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		responses = append(responses, domain.NewTagResponse(t))
	}
	return responses
}

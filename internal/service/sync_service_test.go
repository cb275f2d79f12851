package service

import (
	"context"
	"testing"

	"tagvault-sync-server/internal/domain"
)

func seedTag(repo *mockTagRepo, id, userID, text string, createTs int64) *domain.Tag {
	ts := createTs
	tag := &domain.Tag{
		ID:       id,
		UserID:   userID,
		Text:     text,
		CreateTs: createTs,
		UpdateTs: &ts,
	}
	repo.Insert(context.Background(), tag)
	return repo.tags[id]
}

func TestSyncService_FetchActive_ExcludesTombstones(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(owned, "a", "user1", "alive", 100)
	seedTag(owned, "b", "user1", "doomed", 100)
	owned.SoftDelete(ctx, "b", "user1", 200)

	tags, err := service.FetchActive(ctx, "user1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tags) != 1 || tags[0].ID != "a" {
		t.Errorf("expected only the active tag, got %d results", len(tags))
	}
}

func TestSyncService_FetchAllForSync_IncludesTombstones(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(owned, "a", "user1", "alive", 100)
	seedTag(owned, "b", "user1", "doomed", 100)
	owned.SoftDelete(ctx, "b", "user1", 200)

	resp, err := service.FetchAllForSync(ctx, "user1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Tags) != 2 {
		t.Fatalf("sync must include tombstones, got %d results", len(resp.Tags))
	}
	if resp.SyncTime == 0 {
		t.Error("expected a sync watermark")
	}

	for _, tag := range resp.Tags {
		if tag.ID != "b" {
			continue
		}
		if !tag.Deleted {
			t.Error("tombstone must carry deleted=true")
		}
		if tag.Text != "" || tag.EncKey != "" || tag.EncConfig != "" {
			t.Error("tombstone must carry no payload")
		}
	}
}

func TestSyncService_FetchAllForSync_AfterHardDelete(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(owned, "a", "user1", "gone", 100)
	owned.HardDelete(ctx, "a", "user1")

	resp, err := service.FetchAllForSync(ctx, "user1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Tags) != 0 {
		t.Error("hard-deleted records must not appear in any fetch")
	}

	tags, _ := service.FetchActive(ctx, "user1")
	if len(tags) != 0 {
		t.Error("hard-deleted records must not appear in active reads")
	}
}

func TestSyncService_FetchChangedSince(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(owned, "old", "user1", "settled", 100)
	seedTag(owned, "new", "user1", "recent", 500)
	seedTag(owned, "tombstoned", "user1", "late delete", 100)
	owned.SoftDelete(ctx, "tombstoned", "user1", 600)

	resp, err := service.FetchChangedSince(ctx, "user1", 300)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := make(map[string]bool, len(resp.Tags))
	for _, tag := range resp.Tags {
		got[tag.ID] = true
	}
	if !got["new"] || !got["tombstoned"] {
		t.Errorf("incremental fetch missing changes: %v", got)
	}
	if got["old"] {
		t.Error("records untouched since the watermark must be excluded")
	}
}

func TestSyncService_FetchSharedByIDs_ExcludesDeleted(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(shared, "x", "user1", "visible", 100)
	seedTag(shared, "y", "user1", "deleted", 100)
	shared.SoftDelete(ctx, "y", "user1", 200)

	tags, err := service.FetchSharedByIDs(ctx, []string{"x", "y"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tags) != 1 || tags[0].ID != "x" {
		t.Errorf("expected only x, got %d results", len(tags))
	}
}

func TestSyncService_FetchSharedByUserFiltered(t *testing.T) {
	owned := newMockTagRepo()
	shared := newMockTagRepo()
	service := NewSyncService(owned, shared, nil)
	ctx := context.Background()

	seedTag(shared, "plain", "user1", "showing", 100)
	archived := seedTag(shared, "archived", "user1", "hidden", 100)
	archived.Archived = true
	recycled := seedTag(shared, "recycled", "user1", "hidden", 100)
	recycled.Recycled = true
	seedTag(shared, "foreign", "user2", "not yours", 100)

	ids := []string{"plain", "archived", "recycled", "foreign"}
	tags, err := service.FetchSharedByUserFiltered(ctx, "user1", ids)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tags) != 1 || tags[0].ID != "plain" {
		t.Errorf("expected only the plain tag, got %d results", len(tags))
	}
}

func TestSyncService_BroadcastWithoutManager(t *testing.T) {
	service := NewSyncService(newMockTagRepo(), newMockTagRepo(), nil)

	tag := &domain.Tag{ID: "a", UserID: "user1", Text: "x", CreateTs: 1}
	if err := service.BroadcastTagUpdate("user1", "device1", tag); err != nil {
		t.Errorf("broadcast without manager must be a no-op, got %v", err)
	}
	if err := service.BroadcastTagDelete("user1", "device1", "a", 2); err != nil {
		t.Errorf("broadcast without manager must be a no-op, got %v", err)
	}
}

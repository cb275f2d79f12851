package service

import (
	"context"
	"testing"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"
)

func TestShareService_AddShared_IsIndependentCopy(t *testing.T) {
	ownedRepo := newMockTagRepo()
	sharedRepo := newMockTagRepo()
	tagService := NewTagService(ownedRepo, nil)
	shareService := NewShareService(sharedRepo, nil)
	ctx := context.Background()

	original, err := tagService.Create(ctx, "alice", &domain.CreateTagRequest{
		DeviceID: "alice-phone",
		Text:     "wifi password",
		EncKey:   "k1",
		CreateTs: 100,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	shared, err := shareService.AddShared(ctx, &domain.ShareTagRequest{
		RecipientUserID: "bob",
		DeviceID:        "alice-phone",
		Text:            original.Text,
		EncKey:          original.EncKey,
		CreateTs:        150,
	})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}

	if shared.ID == original.ID {
		t.Error("shared copy must get a fresh id")
	}
	if shared.UserID != "bob" {
		t.Errorf("shared copy owner = %q, want bob", shared.UserID)
	}

	// Editing the shared copy leaves the owner's original untouched.
	outcome, err := shareService.UpdateShared(ctx, "bob", shared.ID, &domain.UpdateTagRequest{
		Text:     "bob's note",
		UpdateTs: 200,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if outcome != repository.UpdateApplied {
		t.Fatalf("outcome = %v, want applied", outcome)
	}

	if ownedRepo.tags[original.ID].Text != "wifi password" {
		t.Error("editing a shared copy must not mutate the original")
	}
	if sharedRepo.tags[shared.ID].Text != "bob's note" {
		t.Error("shared copy edit was lost")
	}
}

func TestShareService_UpdateShared_GateApplies(t *testing.T) {
	sharedRepo := newMockTagRepo()
	service := NewShareService(sharedRepo, nil)
	ctx := context.Background()

	shared, _ := service.AddShared(ctx, &domain.ShareTagRequest{
		RecipientUserID: "bob",
		DeviceID:        "d1",
		Text:            "v1",
		CreateTs:        100,
	})

	outcome, err := service.UpdateShared(ctx, "bob", shared.ID, &domain.UpdateTagRequest{
		Text:     "stale",
		UpdateTs: 50,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != repository.UpdateRejectedStale {
		t.Errorf("outcome = %v, want rejected-stale: shared tags obey the same gate", outcome)
	}
}

func TestShareService_SoftDeleteShared(t *testing.T) {
	sharedRepo := newMockTagRepo()
	service := NewShareService(sharedRepo, nil)
	ctx := context.Background()

	shared, _ := service.AddShared(ctx, &domain.ShareTagRequest{
		RecipientUserID: "bob",
		DeviceID:        "d1",
		Text:            "temp",
		EncKey:          "k",
		CreateTs:        100,
	})

	deleted, err := service.SoftDeleteShared(ctx, "bob", shared.ID, &domain.DeleteTagRequest{DeleteTs: 200})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !deleted {
		t.Fatal("expected soft delete to succeed")
	}

	stored := sharedRepo.tags[shared.ID]
	if !stored.Deleted || stored.Text != "" || stored.EncKey != "" {
		t.Error("shared tombstone must be flagged and carry no payload")
	}

	// Recipient scoping: another user cannot touch the copy.
	deleted, _ = service.HardDeleteShared(ctx, "mallory", shared.ID)
	if deleted {
		t.Error("foreign user must not delete another recipient's shared tag")
	}
}

func TestShareService_HardDeleteAllShared(t *testing.T) {
	sharedRepo := newMockTagRepo()
	service := NewShareService(sharedRepo, nil)
	ctx := context.Background()

	service.AddShared(ctx, &domain.ShareTagRequest{RecipientUserID: "bob", DeviceID: "d1", Text: "a", CreateTs: 1})
	service.AddShared(ctx, &domain.ShareTagRequest{RecipientUserID: "bob", DeviceID: "d1", Text: "b", CreateTs: 2})
	service.AddShared(ctx, &domain.ShareTagRequest{RecipientUserID: "carol", DeviceID: "d2", Text: "c", CreateTs: 3})

	count, err := service.HardDeleteAllShared(ctx, "bob")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("purged %d records, want 2", count)
	}
}

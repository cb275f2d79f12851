package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"
)

type mockDeviceRepo struct {
	devices map[string]*domain.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*domain.Device)}
}

func (m *mockDeviceRepo) Create(ctx context.Context, device *domain.Device) error {
	m.devices[device.ID] = device
	return nil
}

func (m *mockDeviceRepo) List(ctx context.Context, userID string) ([]*domain.Device, error) {
	var devices []*domain.Device
	for _, d := range m.devices {
		if d.UserID == userID {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

func (m *mockDeviceRepo) FindByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	if d, exists := m.devices[deviceID]; exists {
		return d, nil
	}
	return nil, repository.ErrDeviceNotFound
}

func (m *mockDeviceRepo) Revoke(ctx context.Context, deviceID string) error {
	if d, exists := m.devices[deviceID]; exists {
		d.IsRevoked = true
		return nil
	}
	return repository.ErrDeviceNotFound
}

func (m *mockDeviceRepo) UpdateLastActive(ctx context.Context, deviceID string) error {
	if d, exists := m.devices[deviceID]; exists {
		d.LastActive = time.Now()
	}
	return nil
}

func TestDeviceService_RegisterAndList(t *testing.T) {
	repo := newMockDeviceRepo()
	service := NewDeviceService(repo)
	ctx := context.Background()

	device, err := service.Register(ctx, "user1", &domain.RegisterDeviceRequest{
		Name:       "Pixel",
		Type:       "mobile",
		OS:         "android",
		AppVersion: "1.2.0",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if device.ID == "" {
		t.Error("expected device ID to be generated")
	}

	service.Register(ctx, "user2", &domain.RegisterDeviceRequest{
		Name: "Desk", Type: "desktop", OS: "linux", AppVersion: "1.2.0",
	})

	devices, err := service.List(ctx, "user1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("listed %d devices, want 1", len(devices))
	}
}

func TestDeviceService_Revoke(t *testing.T) {
	repo := newMockDeviceRepo()
	service := NewDeviceService(repo)
	ctx := context.Background()

	device, _ := service.Register(ctx, "user1", &domain.RegisterDeviceRequest{
		Name: "Pixel", Type: "mobile", OS: "android", AppVersion: "1.2.0",
	})

	err := service.Revoke(ctx, "user2", device.ID)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign revoke error = %v, want ErrNotOwner", err)
	}

	if err := service.Revoke(ctx, "user1", device.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !repo.devices[device.ID].IsRevoked {
		t.Error("expected device flagged revoked")
	}
}

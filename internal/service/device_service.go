package service

import (
	"context"
	"time"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/repository"

	"github.com/google/uuid"
)

type DeviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo}
}

func (s *DeviceService) Register(ctx context.Context, userID string, req *domain.RegisterDeviceRequest) (*domain.DeviceResponse, error) {
	now := time.Now()

	device := &domain.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       req.Name,
		Type:       req.Type,
		OS:         req.OS,
		AppVersion: req.AppVersion,
		LastActive: now,
		CreatedAt:  now,
	}

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	return deviceResponse(device), nil
}

func (s *DeviceService) List(ctx context.Context, userID string) ([]*domain.DeviceResponse, error) {
	devices, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		responses = append(responses, deviceResponse(d))
	}
	return responses, nil
}

func (s *DeviceService) Revoke(ctx context.Context, userID, deviceID string) error {
	device, err := s.repo.FindByID(ctx, deviceID)
	if err != nil {
		return err
	}

	if device.UserID != userID {
		return ErrNotOwner
	}

	return s.repo.Revoke(ctx, deviceID)
}

func (s *DeviceService) UpdateLastActive(ctx context.Context, deviceID string) error {
	return s.repo.UpdateLastActive(ctx, deviceID)
}

func deviceResponse(d *domain.Device) *domain.DeviceResponse {
	return &domain.DeviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		Type:       d.Type,
		OS:         d.OS,
		LastActive: d.LastActive,
		IsRevoked:  d.IsRevoked,
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tagvault-sync-server/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const devicesCollection = "devices"

var ErrDeviceNotFound = errors.New("device not found")

type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	List(ctx context.Context, userID string) ([]*domain.Device, error)
	FindByID(ctx context.Context, deviceID string) (*domain.Device, error)
	Revoke(ctx context.Context, deviceID string) error
	UpdateLastActive(ctx context.Context, deviceID string) error
}

type deviceRepository struct {
	col *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) DeviceRepository {
	return &deviceRepository{col: db.Collection(devicesCollection)}
}

func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) error {
	if _, err := r.col.InsertOne(ctx, device); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func (r *deviceRepository) List(ctx context.Context, userID string) ([]*domain.Device, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cur.Close(ctx)

	var devices []*domain.Device
	if err := cur.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return devices, nil
}

func (r *deviceRepository) FindByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	var device domain.Device
	err := r.col.FindOne(ctx, bson.M{"id": deviceID}).Decode(&device)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device: %w", err)
	}
	return &device, nil
}

func (r *deviceRepository) Revoke(ctx context.Context, deviceID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"id": deviceID},
		bson.M{"$set": bson.M{"isRevoked": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (r *deviceRepository) UpdateLastActive(ctx context.Context, deviceID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"id": deviceID},
		bson.M{"$set": bson.M{"lastActive": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update device activity: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// DeviceStore is the Redis adapter for device fingerprints.
//
// Key format:
//
//	device:<id>          → JSON-encoded device record
//	device_fp:<sha256>   → device id, where the hash covers "<userAgent>|<ip>"
//
// The fingerprint key gives the (userAgent, ip) pair its uniqueness: SETNX
// on it makes concurrent creations of the same fingerprint collide.
type DeviceStore struct {
	client *redis.Client
}

func NewDeviceStore(client *redis.Client) *DeviceStore {
	return &DeviceStore{client: client}
}

var _ ports.DeviceRepository = (*DeviceStore)(nil)

func deviceKey(id string) string {
	return fmt.Sprintf("device:%s", id)
}

func fingerprintKey(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + ip))
	return fmt.Sprintf("device_fp:%s", hex.EncodeToString(sum[:]))
}

func (s *DeviceStore) Create(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	created := *device
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = now
	}

	claimed, err := s.client.SetNX(ctx, fingerprintKey(created.UserAgent, created.IP), created.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("device fingerprint claim: %w", err)
	}
	if !claimed {
		return nil, domain.ErrDuplicateRecord
	}

	payload, err := json.Marshal(&created)
	if err != nil {
		return nil, fmt.Errorf("device marshal: %w", err)
	}
	if err := s.client.Set(ctx, deviceKey(created.ID), payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("device create: %w", err)
	}
	return &created, nil
}

func (s *DeviceStore) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	payload, err := s.client.Get(ctx, deviceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("device get: %w", err)
	}

	var device domain.Device
	if err := json.Unmarshal(payload, &device); err != nil {
		return nil, fmt.Errorf("device unmarshal: %w", err)
	}
	return &device, nil
}

func (s *DeviceStore) GetByFingerprint(ctx context.Context, userAgent, ip string) (*domain.Device, error) {
	id, err := s.client.Get(ctx, fingerprintKey(userAgent, ip)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("device fingerprint get: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *DeviceStore) Update(ctx context.Context, id string, patch ports.DevicePatch) (*domain.Device, error) {
	device, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.SessionID != nil {
		device.SessionID = *patch.SessionID
	}
	device.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(device)
	if err != nil {
		return nil, fmt.Errorf("device marshal: %w", err)
	}
	if err := s.client.Set(ctx, deviceKey(id), payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("device update: %w", err)
	}
	return device, nil
}

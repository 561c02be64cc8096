package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"healthsync-aggregator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// countingDoctorRepository wraps a fixed directory and counts lookups
type countingDoctorRepository struct {
	doctors map[uuid.UUID]*entity.Doctor
	err     error
	calls   int
}

func (r *countingDoctorRepository) FindByID(_ *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.doctors[id], nil
}

// memoryDoctorCache is an in-process DoctorCache
type memoryDoctorCache struct {
	entries map[string]*entity.Doctor
	getErr  error
	sets    int
}

func newMemoryDoctorCache() *memoryDoctorCache {
	return &memoryDoctorCache{entries: make(map[string]*entity.Doctor)}
}

func (c *memoryDoctorCache) Get(_ context.Context, doctorID string) (*entity.Doctor, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[doctorID], nil
}

func (c *memoryDoctorCache) Set(_ context.Context, doctor *entity.Doctor) error {
	c.sets++
	c.entries[doctor.ID.String()] = doctor
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newDirectory(doctors ...*entity.Doctor) *countingDoctorRepository {
	repo := &countingDoctorRepository{doctors: make(map[uuid.UUID]*entity.Doctor)}
	for _, d := range doctors {
		repo.doctors[d.ID] = d
	}
	return repo
}

func TestDoctorResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	doctor := &entity.Doctor{ID: uuid.New(), Name: "Dr. A", Specialty: "Cardiology"}

	t.Run("resolves a known doctor", func(t *testing.T) {
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), newDirectory(doctor), nil)

		found, ok := resolver.Resolve(ctx, doctor.ID.String())
		require.True(t, ok)
		assert.Equal(t, "Dr. A", found.Name)
	})

	t.Run("malformed id is not found and never queried", func(t *testing.T) {
		repo := newDirectory(doctor)
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, nil)

		found, ok := resolver.Resolve(ctx, "not-a-valid-id")
		assert.False(t, ok)
		assert.Nil(t, found)
		assert.Equal(t, 0, repo.calls)
	})

	t.Run("padded id resolves like the bare id", func(t *testing.T) {
		repo := newDirectory(doctor)
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, nil)

		_, ok := resolver.Resolve(ctx, doctor.ID.String())
		require.True(t, ok)
		found, ok := resolver.Resolve(ctx, " "+doctor.ID.String()+"\t")
		require.True(t, ok)
		assert.Equal(t, "Dr. A", found.Name)
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("unknown doctor is not found", func(t *testing.T) {
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), newDirectory(doctor), nil)

		_, ok := resolver.Resolve(ctx, uuid.NewString())
		assert.False(t, ok)
	})

	t.Run("lookup error is treated as not found", func(t *testing.T) {
		repo := newDirectory(doctor)
		repo.err = errors.New("connection reset")
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, nil)

		found, ok := resolver.Resolve(ctx, doctor.ID.String())
		assert.False(t, ok)
		assert.Nil(t, found)
	})

	t.Run("memoises hits and misses", func(t *testing.T) {
		repo := newDirectory(doctor)
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, nil)
		missing := uuid.NewString()

		for i := 0; i < 3; i++ {
			_, ok := resolver.Resolve(ctx, doctor.ID.String())
			assert.True(t, ok)
			_, ok = resolver.Resolve(ctx, missing)
			assert.False(t, ok)
		}
		assert.Equal(t, 2, repo.calls)
	})
}

func TestDoctorResolver_Cache(t *testing.T) {
	ctx := context.Background()
	doctor := &entity.Doctor{ID: uuid.New(), Name: "Dr. A", Specialty: "Cardiology"}

	t.Run("cache hit bypasses the source", func(t *testing.T) {
		repo := newDirectory()
		cache := newMemoryDoctorCache()
		cache.entries[doctor.ID.String()] = doctor
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, cache)

		found, ok := resolver.Resolve(ctx, doctor.ID.String())
		require.True(t, ok)
		assert.Equal(t, "Cardiology", found.Specialty)
		assert.Equal(t, 0, repo.calls)
	})

	t.Run("source hit is written to the cache", func(t *testing.T) {
		cache := newMemoryDoctorCache()
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), newDirectory(doctor), cache)

		_, ok := resolver.Resolve(ctx, doctor.ID.String())
		require.True(t, ok)
		assert.Equal(t, 1, cache.sets)
		assert.Contains(t, cache.entries, doctor.ID.String())
	})

	t.Run("cache failure falls back to the source", func(t *testing.T) {
		repo := newDirectory(doctor)
		cache := newMemoryDoctorCache()
		cache.getErr = errors.New("redis down")
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), repo, cache)

		found, ok := resolver.Resolve(ctx, doctor.ID.String())
		require.True(t, ok)
		assert.Equal(t, "Dr. A", found.Name)
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("uppercase id shares the canonical cache key", func(t *testing.T) {
		cache := newMemoryDoctorCache()
		cache.entries[doctor.ID.String()] = doctor
		resolver := NewDoctorResolver(newTestDB(t), newTestLogger(), newDirectory(), cache)

		_, ok := resolver.Resolve(ctx, strings.ToUpper(doctor.ID.String()))
		assert.True(t, ok)
	})
}

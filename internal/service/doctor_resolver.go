package service

import (
	"context"
	"strings"

	"healthsync-aggregator/internal/domain/entity"
	"healthsync-aggregator/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DoctorResolver looks up doctor directory entries by the raw identifier
// found on appointments. Malformed identifiers, missing doctors and lookup
// errors are all reported as not found.
type DoctorResolver interface {
	Resolve(ctx context.Context, doctorID string) (*entity.Doctor, bool)
}

type doctorResolver struct {
	db         *gorm.DB
	log        *logrus.Logger
	doctorRepo repository.DoctorRepository
	cache      DoctorCache

	// resolved memoises hits and misses for the lifetime of the resolver.
	// A resolver is used by a single run and is not safe for concurrent use.
	resolved map[string]*entity.Doctor
}

// NewDoctorResolver creates a resolver. cache may be nil.
func NewDoctorResolver(db *gorm.DB, log *logrus.Logger, doctorRepo repository.DoctorRepository, cache DoctorCache) DoctorResolver {
	return &doctorResolver{
		db:         db,
		log:        log,
		doctorRepo: doctorRepo,
		cache:      cache,
		resolved:   make(map[string]*entity.Doctor),
	}
}

func (r *doctorResolver) Resolve(ctx context.Context, doctorID string) (*entity.Doctor, bool) {
	doctorID = strings.TrimSpace(doctorID)
	if doctor, ok := r.resolved[doctorID]; ok {
		return doctor, doctor != nil
	}

	doctor := r.lookup(ctx, doctorID)
	r.resolved[doctorID] = doctor
	return doctor, doctor != nil
}

func (r *doctorResolver) lookup(ctx context.Context, doctorID string) *entity.Doctor {
	id, err := uuid.Parse(doctorID)
	if err != nil {
		r.log.Warnf("Malformed doctor id %q, treating as not found: %+v", doctorID, err)
		return nil
	}
	key := id.String()

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warnf("Doctor cache unavailable for %s, falling back to source: %+v", key, err)
		} else if cached != nil {
			return cached
		}
	}

	doctor, err := r.doctorRepo.FindByID(r.db.WithContext(ctx), id)
	if err != nil {
		r.log.Errorf("Error retrieving doctor info for ID %s: %+v", key, err)
		return nil
	}
	if doctor == nil {
		r.log.Debugf("Doctor %s not found", key)
		return nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, doctor); err != nil {
			r.log.Warnf("Failed to cache doctor %s: %+v", key, err)
		}
	}
	return doctor
}

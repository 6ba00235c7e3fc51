package store

import (
	"context"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

var _ model.JobStore = (*NopStore)(nil)

// NopStore is a no-op store used in dry-run mode. It accepts every batch and
// keeps nothing, so each run starts from an empty store.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) UpsertJobs(_ context.Context, jobs []model.CanonicalJob) (int, error) {
	return len(jobs), nil
}
func (s *NopStore) Purge(_ context.Context, _ time.Duration) (int64, error) { return 0, nil }
func (s *NopStore) IsEmpty(_ context.Context) (bool, error)                 { return true, nil }

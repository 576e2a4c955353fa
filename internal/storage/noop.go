package storage

import "github.com/6inq/flippr/internal/model"

// NoopPersister is used when no database path is configured: state lives
// only in memory for the lifetime of the process.
type NoopPersister struct{}

func NewNoopPersister() *NoopPersister { return &NoopPersister{} }

func (*NoopPersister) Load() (*model.Snapshot, error) { return nil, nil }
func (*NoopPersister) Save(_ *model.Snapshot) error   { return nil }
func (*NoopPersister) Close() error                   { return nil }

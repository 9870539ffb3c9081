package storage

import (
	"context"

	"github.com/Comcast/bundled/bundle"
)

type NoopStorage struct {
}

func (s *NoopStorage) Put(ctx context.Context, b *bundle.Bundle) error {
	return nil
}

func (s *NoopStorage) Get(ctx context.Context, name string) (*bundle.Bundle, error) {
	return nil, nil
}

func (s *NoopStorage) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *NoopStorage) Remove(ctx context.Context, name string) error {
	return nil
}

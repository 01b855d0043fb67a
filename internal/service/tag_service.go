package service

import (
	"context"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/repo"
)

type TagService struct {
	tags *repo.TagRepo
}

func NewTagService(tags *repo.TagRepo) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tags.List(ctx)
}

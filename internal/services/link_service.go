package services

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/mehmetcanozen/minilink-sub001/internal/models"
	"github.com/mehmetcanozen/minilink-sub001/internal/repository"
	"github.com/mehmetcanozen/minilink-sub001/internal/shortcode"
)

type LinkService struct {
	repo  *repository.LinkRepository
	codes *shortcode.Service
}

func NewLinkService(repo *repository.LinkRepository, codes *shortcode.Service) *LinkService {
	return &LinkService{repo: repo, codes: codes}
}

// CreateLinkRequest carries the link creation payload.
type CreateLinkRequest struct {
	TargetURL  string `json:"target_url" binding:"required"`
	CustomCode string `json:"custom_code,omitempty"`
}

// CreateLink shortens a URL. A custom code is validated and checked for
// availability; otherwise a code is allocated from the pool (or the
// generate-and-check fallback when the pool is dry).
func (s *LinkService) CreateLink(ctx context.Context, req CreateLinkRequest) (*models.Link, error) {
	parsed, err := url.Parse(req.TargetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("target_url must be an absolute URL")
	}

	code := req.CustomCode
	if code != "" {
		if err := s.codes.Validate(code); err != nil {
			return nil, err
		}
		taken, err := s.repo.Exists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("code %q is already in use", code)
		}
	} else {
		code, err = s.codes.Allocate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate short code: %w", err)
		}
	}

	return s.repo.Create(ctx, code, req.TargetURL)
}

// Resolve looks up the target for a code and counts the hit off the
// request path.
func (s *LinkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.repo.IncrementHits(context.Background(), code); err != nil {
			log.Printf("failed to count hit for %s: %v", code, err)
		}
	}()

	return link, nil
}

// PoolStats returns the pool snapshot plus the collision probability at
// the current link count.
func (s *LinkService) PoolStats(ctx context.Context) (shortcode.PoolStats, float64) {
	stats := s.codes.Stats(ctx)

	count, err := s.repo.Count(ctx)
	if err != nil {
		log.Printf("failed to count links for stats: %v", err)
		return stats, 0
	}
	return stats, s.codes.EstimateCollisionProbability(count)
}

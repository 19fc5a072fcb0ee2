package service

import (
	"context"
	"strings"
	"time"

	"github.com/ngoinfo/copilot/internal/cache"
	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Repo  fundingdomain.Repository
	Cache cache.Cache[int64, *fundingdomain.FundingOpportunity]
}

type Service struct {
	log   *zap.Logger
	repo  fundingdomain.Repository
	cache cache.Cache[int64, *fundingdomain.FundingOpportunity]
}

func NewService(p ServiceParam) fundingdomain.Service {
	return &Service{
		log:   p.Log.Named("funding.service"),
		repo:  p.Repo,
		cache: p.Cache,
	}
}

// GetByID returns an active opportunity. Inactive and unknown IDs are both
// reported as not found so withdrawn opportunities disappear from the API.
func (s *Service) GetByID(ctx context.Context, id int64) (*fundingdomain.FundingOpportunity, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}

	opportunity, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if opportunity == nil {
		return nil, fundingdomain.ErrNotFound
	}

	s.cache.Set(id, opportunity, cacheTTL)
	return opportunity, nil
}

func (s *Service) List(ctx context.Context, req fundingdomain.ListRequest) ([]fundingdomain.FundingOpportunity, error) {
	opportunities, err := s.repo.ListActive(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.FocusArea == "" {
		return opportunities, nil
	}

	filtered := opportunities[:0]
	for _, opportunity := range opportunities {
		for _, area := range opportunity.FocusAreas {
			if strings.EqualFold(area, req.FocusArea) {
				filtered = append(filtered, opportunity)
				break
			}
		}
	}
	return filtered, nil
}

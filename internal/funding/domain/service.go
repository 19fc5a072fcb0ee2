package domain

import "context"

type ListRequest struct {
	FocusArea string
	Limit     int
	Offset    int
}

// Service reads active funding opportunities for prompt building, alignment
// scoring and snapshotting.
type Service interface {
	GetByID(ctx context.Context, id int64) (*FundingOpportunity, error)
	List(ctx context.Context, req ListRequest) ([]FundingOpportunity, error)
}

type Repository interface {
	FindActiveByID(ctx context.Context, id int64) (*FundingOpportunity, error)
	ListActive(ctx context.Context, req ListRequest) ([]FundingOpportunity, error)
}

package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ngoinfo/copilot/internal/config"
	exportdomain "github.com/ngoinfo/copilot/internal/export/domain"
	"github.com/ngoinfo/copilot/internal/export/render"
	obslogger "github.com/ngoinfo/copilot/internal/observability/logger"
	obsmetrics "github.com/ngoinfo/copilot/internal/observability/metrics"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"github.com/ngoinfo/copilot/internal/ratelimit"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EndpointExport scopes perimeter buckets for the export flow.
const EndpointExport = "/api/proposals/export"

const maxFilenameSlug = 50

type ServiceParam struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config

	Usage    usagedomain.Service
	Proposal proposaldomain.Service

	Perimeter *ratelimit.Perimeter `optional:"true"`
	Metrics   *obsmetrics.Metrics  `optional:"true"`
}

type Service struct {
	log *zap.Logger
	cfg config.Config

	usage    usagedomain.Service
	proposal proposaldomain.Service

	perimeter *ratelimit.Perimeter
	metrics   *obsmetrics.Metrics
}

func NewService(p ServiceParam) exportdomain.Service {
	return &Service{
		log:       p.Log.Named("export.service"),
		cfg:       p.Cfg,
		usage:     p.Usage,
		proposal:  p.Proposal,
		perimeter: p.Perimeter,
		metrics:   p.Metrics,
	}
}

// Export renders the proposal in the requested format, then records the
// export on the proposal and in the ledger. Rendering failures leave no
// trace; tracking failures after a successful render are logged but do not
// fail the download.
func (s *Service) Export(ctx context.Context, userID, proposalID string, format exportdomain.Format) (*exportdomain.Document, error) {
	log := obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID)

	if denied, err := s.rateLimited(ctx, userID); err != nil {
		log.Warn("perimeter check failed", zap.Error(err))
	} else if denied {
		s.metrics.RecordRateLimitDenied(usagedomain.ActionExport)
		return nil, &proposaldomain.RateLimitError{
			Action: usagedomain.ActionExport,
			Limit:  s.cfg.ExportRatePerMinute,
		}
	}
	if !s.usage.CheckRateLimit(ctx, userID, usagedomain.ActionExport, s.cfg.ExportRatePerMinute) {
		s.metrics.RecordRateLimitDenied(usagedomain.ActionExport)
		return nil, &proposaldomain.RateLimitError{
			Action: usagedomain.ActionExport,
			Limit:  s.cfg.ExportRatePerMinute,
		}
	}

	proposal, err := s.proposal.GetByID(ctx, userID, proposalID)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case exportdomain.FormatPDF:
		data, err = render.PDF(proposal)
	case exportdomain.FormatDOCX:
		data, err = render.DOCX(proposal)
	default:
		return nil, exportdomain.ErrUnsupportedFormat
	}
	if err != nil {
		log.Error("export render failed",
			zap.String("proposal_id", proposalID),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.proposal.TrackExport(ctx, userID, proposalID, string(format)); err != nil {
		log.Warn("export tracking failed", zap.String("proposal_id", proposalID), zap.Error(err))
	}
	s.usage.Record(ctx, usagedomain.RecordRequest{
		UserID:       userID,
		ActionType:   usagedomain.ActionExport,
		PlanName:     s.cfg.DefaultPlanName,
		MonthlyLimit: s.cfg.DefaultMonthlyLimit,
	})
	s.metrics.RecordExport(string(format))

	log.Info("proposal exported",
		zap.String("proposal_id", proposalID),
		zap.String("format", string(format)),
	)

	return &exportdomain.Document{
		Data:        data,
		ContentType: format.ContentType(),
		Filename:    Filename(proposal.Title, format),
	}, nil
}

func (s *Service) rateLimited(ctx context.Context, userID string) (bool, error) {
	if !s.perimeter.Enabled() {
		return false, nil
	}
	allowed, err := s.perimeter.AllowUser(ctx, userID, EndpointExport)
	return !allowed, err
}

// Filename builds a download filename from the proposal title.
func Filename(title string, format exportdomain.Format) string {
	name := slug.Make(title)
	if len(name) > maxFilenameSlug {
		name = strings.Trim(name[:maxFilenameSlug], "-")
	}
	if name == "" {
		name = "proposal"
	}
	return name + "." + string(format)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vcscsvcscs/runcoach/internal/audit"
	"github.com/vcscsvcscs/runcoach/internal/azure"
	"github.com/vcscsvcscs/runcoach/internal/pdf"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"go.uber.org/zap"
)

// Report is a rendered plan export
type Report struct {
	Filename    string
	Content     []byte
	ArchivePath string // empty when no archive is configured
}

// ReportService exports the current plan as PDF
type ReportService struct {
	plans   *PlanService
	pdfGen  *pdf.PlanPDFGenerator
	archive azure.BlobStorage
	audit   *audit.Logger
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService creates a new ReportService. archive and auditLogger may be nil.
func NewReportService(
	plans *PlanService,
	pdfGen *pdf.PlanPDFGenerator,
	archive azure.BlobStorage,
	auditLogger *audit.Logger,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		plans:   plans,
		pdfGen:  pdfGen,
		archive: archive,
		audit:   auditLogger,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateReport renders the plan. When an archive is configured the PDF is
// uploaded too; an upload failure is logged and the report is still returned.
func (s *ReportService) GenerateReport(ctx context.Context) (*Report, error) {
	snap := s.plans.Snapshot()
	if snap.Plan == nil {
		return nil, plan.ErrNoPlan
	}

	now := s.now()
	content, err := s.pdfGen.Generate(&pdf.ReportData{
		Profile:     snap.Profile,
		Plan:        snap.Plan,
		GeneratedAt: now,
	})
	if err != nil {
		s.logger.Error("failed to generate plan report",
			zap.Error(err),
			zap.String("plan_id", snap.Plan.ID),
		)
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	report := &Report{
		Filename: fmt.Sprintf("training-plan_%s_%s.pdf", snap.Plan.ID, now.Format("20060102")),
		Content:  content,
	}

	if s.archive != nil {
		path, err := s.archive.UploadPDF(ctx, report.Filename, content)
		if err != nil {
			s.logger.Warn("failed to archive plan report",
				zap.Error(err),
				zap.String("plan_id", snap.Plan.ID),
			)
		} else {
			report.ArchivePath = path
		}
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action: audit.ActionReportExported,
		PlanID: snap.Plan.ID,
		Details: map[string]any{
			"size_bytes": len(content),
			"archived":   report.ArchivePath != "",
		},
	}); err != nil {
		s.logger.Warn("audit entry not persisted", zap.Error(err))
	}

	s.logger.Info("plan report generated successfully",
		zap.String("plan_id", snap.Plan.ID),
		zap.String("filename", report.Filename),
		zap.Int("size_bytes", len(content)),
	)

	return report, nil
}

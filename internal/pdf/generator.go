package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

// ErrNoPlan is returned when there is nothing to render
var ErrNoPlan = errors.New("report requires a training plan")

// PlanPDFGenerator renders a training plan as a printable PDF
type PlanPDFGenerator struct {
	logger *zap.Logger
}

// NewPlanPDFGenerator creates a new PlanPDFGenerator
func NewPlanPDFGenerator(logger *zap.Logger) *PlanPDFGenerator {
	return &PlanPDFGenerator{
		logger: logger,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	Profile     *model.UserProfile // optional
	Plan        *model.TrainingPlan
	GeneratedAt time.Time
}

// Generate creates a PDF report from the provided data
func (g *PlanPDFGenerator) Generate(data *ReportData) ([]byte, error) {
	if data == nil || data.Plan == nil {
		return nil, ErrNoPlan
	}

	g.logger.Info("generating plan PDF",
		zap.String("plan_id", data.Plan.ID),
		zap.Int("weeks", len(data.Plan.Weeks)),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	generatedAt := data.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	g.addTitle(pdf, tr, data.Plan, generatedAt)
	g.addProfile(pdf, tr, data.Profile)

	progress := plan.WeeklyProgress(data.Plan)
	g.addProgressTable(pdf, tr, progress)
	for i, week := range data.Plan.Weeks {
		g.addWeek(pdf, tr, week, progress.Weeks[i])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("plan PDF generated successfully",
		zap.String("plan_id", data.Plan.ID),
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *PlanPDFGenerator) addTitle(pdf *gofpdf.Fpdf, tr func(string) string, p *model.TrainingPlan, generatedAt time.Time) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, tr("Training Plan"), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Goal: %s", p.Goal)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Created: %s", p.CreatedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (g *PlanPDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

func (g *PlanPDFGenerator) addProfile(pdf *gofpdf.Fpdf, tr func(string) string, profile *model.UserProfile) {
	if profile == nil {
		return
	}
	g.addSectionHeader(pdf, tr, "Runner")

	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Name: %s (%d)", profile.Name, profile.Age)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Level: %s", profile.Level), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Goal: %s", profile.Goal.Label()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Days per week: %d", profile.DaysPerWeek), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Current weekly distance: %.1f km", profile.CurrentWeeklyDistance), "", 1, "L", false, 0, "")
	if profile.Notes != "" {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Notes: %s", profile.Notes)), "", "L", false)
	}
	pdf.Ln(5)
}

// addProgressTable renders weekly volume, one row per week
func (g *PlanPDFGenerator) addProgressTable(pdf *gofpdf.Fpdf, tr func(string) string, progress plan.Progress) {
	g.addSectionHeader(pdf, tr, "Weekly Volume")

	widths := []float64{20, 60, 30, 30, 30}
	headers := []string{"Week", "Focus", "Planned km", "Done km", "Workouts"}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, w := range progress.Weeks {
		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", w.WeekNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(w.Focus), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f", w.PlannedDistance), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.1f", w.CompletedDistance), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d/%d", w.CompletedWorkouts, w.PlannedWorkouts), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.CellFormat(0, 6, fmt.Sprintf("Completed %d of %d workouts (%.0f%%), %.1f of %.1f km",
		progress.CompletedWorkouts, progress.PlannedWorkouts, progress.CompletionRate*100,
		progress.CompletedDistance, progress.PlannedDistance), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func (g *PlanPDFGenerator) addWeek(pdf *gofpdf.Fpdf, tr func(string) string, week model.WeekPlan, progress plan.WeekProgress) {
	g.addSectionHeader(pdf, tr, fmt.Sprintf("Week %d - %s (%.1f km)", week.WeekNumber, week.Focus, progress.PlannedDistance))

	if len(week.Workouts) == 0 {
		pdf.CellFormat(0, 8, "No workouts scheduled.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, w := range week.Workouts {
		status := "[ ]"
		if w.Completed {
			status = "[x]"
		}

		pdf.SetFont("Arial", "B", 10)
		header := fmt.Sprintf("%s %s - %s", status, w.DayName, w.Type)
		if w.Type != model.WorkoutRest {
			header += fmt.Sprintf(", %.1f km, %.0f min", w.DistanceKm, w.DurationMinutes)
		}
		pdf.CellFormat(0, 6, tr(header), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		if w.Description != "" {
			pdf.MultiCell(0, 5, tr("  "+w.Description), "", "L", false)
		}
		if w.PaceTarget != nil {
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("  Pace: %s", *w.PaceTarget)), "", 1, "L", false, 0, "")
		}
		if w.ActualDistance != nil || w.ActualDuration != nil {
			actual := "  Actual:"
			if w.ActualDistance != nil {
				actual += fmt.Sprintf(" %.1f km", *w.ActualDistance)
			}
			if w.ActualDuration != nil {
				actual += fmt.Sprintf(" %.0f min", *w.ActualDuration)
			}
			pdf.CellFormat(0, 5, actual, "", 1, "L", false, 0, "")
		}
		if w.Feeling != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Feeling: %d/10", *w.Feeling), "", 1, "L", false, 0, "")
		}
		if w.Feedback != nil && *w.Feedback != "" {
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("  Feedback: %s", *w.Feedback)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(4)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
)

// ComplaintCreator defines the database operations needed to file a
// complaint
type ComplaintCreator interface {
	InsertComplaint(ctx context.Context, complaint *model.Complaint) error
}

// ReportComplaintInput carries a citizen's new complaint. DepartmentID is
// resolved from the category by the caller before the core is invoked.
type ReportComplaintInput struct {
	Title        string         `validate:"required,min=5,max=200"`
	Description  string         `validate:"required,min=10,max=2000"`
	CategoryID   string         `validate:"required"`
	DepartmentID string         `validate:"required"`
	ReporterID   string         `validate:"required"`
	Priority     model.Priority `validate:"omitempty,oneof=low medium high critical"`
	Location     model.Point
	Address      string        `validate:"required,min=5"`
	AreaID       string        `validate:"omitempty"`
	Images       []model.Image `validate:"max=5"`
}

// ReportComplaint files a new complaint in the reported status. Status
// transitions are logged, creation is not, matching the audit trail
// semantics (the trail records transitions only).
func ReportComplaint(ctx context.Context, store ComplaintCreator, logger *zap.Logger, in ReportComplaintInput) (*model.Complaint, error) {
	if err := validate.Struct(in); err != nil {
		return nil, assignment.NewRuleError(assignment.KindValidation, reportValidationMessage(err))
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	complaint := &model.Complaint{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		Priority:     priority,
		Status:       model.StatusReported,
		ReporterID:   in.ReporterID,
		DepartmentID: in.DepartmentID,
		Location:     in.Location,
		Address:      in.Address,
		AreaID:       in.AreaID,
		Images:       in.Images,
		CreatedAt:    time.Now().UTC(),
	}

	logger.Info("Filing complaint",
		zap.String("complaint_id", complaint.ID),
		zap.String("department_id", complaint.DepartmentID),
		zap.String("reporter_id", complaint.ReporterID))

	if err := store.InsertComplaint(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to insert complaint: %w", err)
	}

	return complaint, nil
}

func reportValidationMessage(err error) string {
	msg := firstFieldError(err)
	if msg == "" {
		return "Invalid complaint"
	}
	return msg
}

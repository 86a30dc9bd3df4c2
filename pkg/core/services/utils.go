package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// firstFieldError maps the first struct validation failure to the message
// surfaced to the caller, mirroring the messages the web layer shows.
func firstFieldError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ""
	}

	switch verrs[0].Field() {
	case "Title":
		return "Title must be at least 5 characters"
	case "Description":
		return "Description must be at least 10 characters"
	case "CategoryID":
		return "Category is required"
	case "DepartmentID":
		return "Department is required"
	case "ReporterID":
		return "Reporter is required"
	case "Address":
		return "Address is required"
	case "Images":
		return "Maximum 5 images allowed"
	case "Priority":
		return "Invalid priority"
	case "WorkerID":
		return "Worker is required"
	case "StartDate":
		return "Start date is required"
	case "EndDate":
		return "End date is required"
	case "Reason":
		return "Reason must be at least 5 characters"
	case "ComplaintID":
		return "Complaint is required"
	case "LeaveID":
		return "Leave request is required"
	case "NewStatus":
		return "Invalid status"
	case "Note":
		return "Note must be at most 500 characters"
	}
	return ""
}

// Package services exposes the operations of the complaint assignment
// subsystem as package-level functions over narrow store interfaces.
package services

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
)

var validate = validator.New()

// AssignComplaint assigns a reported complaint to a worker through the
// assignment engine. See assignment.Engine.Assign for the rule chain.
func AssignComplaint(ctx context.Context, store assignment.Store, logger *zap.Logger, in assignment.AssignInput) (*assignment.AssignmentResult, error) {
	engine := assignment.NewEngine(store, logger)
	return engine.Assign(ctx, in)
}

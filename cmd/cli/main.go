package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/internal/config"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/services"
	"github.com/dhruvdankhara/smart-city-management/pkg/postgres"
	"github.com/dhruvdankhara/smart-city-management/pkg/utils/logging"
)

const dateLayout = "2006-01-02"

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database *postgres.DB
	logger   *zap.Logger
	ctx      context.Context
}

var (
	env string
	app *App

	// actor flags, shared by all mutating commands
	actorID   string
	actorName string
	actorRole string
	actorDept string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Complaint management CLI - assign complaints and manage worker availability",
		Long:  `A CLI tool for the municipal complaint assignment subsystem: assigning complaints to workers, tracking workloads and handling leave requests.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.logger != nil {
					app.logger.Sync()
				}
				if app.database != nil {
					app.database.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "", "Acting user id")
	rootCmd.PersistentFlags().StringVar(&actorName, "actor-name", "", "Acting user name")
	rootCmd.PersistentFlags().StringVar(&actorRole, "actor-role", "admin", "Acting user role (citizen, worker, admin, super-admin)")
	rootCmd.PersistentFlags().StringVar(&actorDept, "actor-department", "", "Acting user department id")

	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(workloadsCmd())
	rootCmd.AddCommand(requestLeaveCmd())
	rootCmd.AddCommand(reviewLeaveCmd())
	rootCmd.AddCommand(addUserCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and database
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Optional .env file so DATABASE_URL can stay out of the YAML config
	if err := godotenv.Load(); err == nil {
		app.logger.Debug("Loaded .env file")
	}

	app.logger.Info("Loading configuration")
	app.cfg, err = config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database initialized successfully")

	return nil
}

// actor builds the authorization context from the persistent flags
func actor() (model.Actor, error) {
	if actorID == "" {
		return model.Actor{}, fmt.Errorf("--actor is required")
	}
	switch model.Role(actorRole) {
	case model.RoleCitizen:
		return model.NewCitizenActor(actorID, actorName), nil
	case model.RoleWorker:
		return model.NewWorkerActor(actorID, actorName, actorDept), nil
	case model.RoleAdmin:
		if actorDept == "" {
			return model.Actor{}, fmt.Errorf("--actor-department is required for admins")
		}
		return model.NewAdminActor(actorID, actorName, actorDept), nil
	case model.RoleSuperAdmin:
		return model.NewSuperAdminActor(actorID, actorName), nil
	}
	return model.Actor{}, fmt.Errorf("unknown role %q", actorRole)
}

// Command definitions

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <complaint_id> <worker_id> [deadline]",
		Short: "Assign a reported complaint to a worker",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := actor()
			if err != nil {
				return err
			}

			deadline := time.Now().UTC().AddDate(0, 0, app.cfg.DefaultSLADays)
			if len(args) > 2 {
				deadline, err = time.Parse(dateLayout, args[2])
				if err != nil {
					return fmt.Errorf("deadline must be YYYY-MM-DD: %w", err)
				}
			}

			priority, _ := cmd.Flags().GetString("priority")

			result, err := services.AssignComplaint(app.ctx, app.database, app.logger, assignment.AssignInput{
				ComplaintID: args[0],
				Actor:       act,
				WorkerID:    args[1],
				SLADeadline: deadline,
				Priority:    model.Priority(priority),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Complaint assigned successfully!\n\n")
			fmt.Printf("Complaint:   %s (%s)\n", result.Complaint.ID, result.Complaint.Title)
			fmt.Printf("Worker:      %s\n", result.Complaint.AssignedWorkerID)
			fmt.Printf("Worker load: %d\n", result.WorkerLoad)
			if result.Complaint.SLADeadline != nil {
				fmt.Printf("Deadline:    %s\n", result.Complaint.SLADeadline.Format(dateLayout))
			}
			if result.Suggestion != "" {
				fmt.Printf("\nSuggestion: %s\n", result.Suggestion)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("priority", "", "Override the complaint priority (low, medium, high, critical)")

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <reporter_id> <category_id> <department_id> <title> <description>",
		Short: "File a new complaint",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, _ := cmd.Flags().GetString("address")
			lon, _ := cmd.Flags().GetFloat64("lon")
			lat, _ := cmd.Flags().GetFloat64("lat")
			priority, _ := cmd.Flags().GetString("priority")

			complaint, err := services.ReportComplaint(app.ctx, app.database, app.logger, services.ReportComplaintInput{
				Title:        args[3],
				Description:  args[4],
				CategoryID:   args[1],
				DepartmentID: args[2],
				ReporterID:   args[0],
				Priority:     model.Priority(priority),
				Location:     model.Point{Longitude: lon, Latitude: lat},
				Address:      address,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Complaint filed!\n\n")
			fmt.Printf("ID:       %s\n", complaint.ID)
			fmt.Printf("Status:   %s\n", complaint.Status)
			fmt.Printf("Priority: %s\n\n", complaint.Priority)

			return nil
		},
	}

	cmd.Flags().String("address", "", "Street address of the issue")
	cmd.Flags().Float64("lon", 0, "Longitude")
	cmd.Flags().Float64("lat", 0, "Latitude")
	cmd.Flags().String("priority", "", "Priority (low, medium, high, critical)")

	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <complaint_id> <new_status>",
		Short: "Move a complaint along its lifecycle (in_progress, resolved, rejected, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := actor()
			if err != nil {
				return err
			}
			note, _ := cmd.Flags().GetString("note")

			complaint, err := services.UpdateComplaintStatus(app.ctx, app.database, app.logger, services.UpdateStatusInput{
				ComplaintID: args[0],
				Actor:       act,
				NewStatus:   model.Status(args[1]),
				Note:        note,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Complaint %s is now %s\n\n", complaint.ID, complaint.Status)

			return nil
		},
	}

	cmd.Flags().String("note", "", "Note recorded in the audit trail")

	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <complaint_id>",
		Short: "Show a complaint and its status audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			complaint, err := app.database.GetComplaint(app.ctx, args[0])
			if err != nil {
				return err
			}
			logs, err := app.database.GetStatusLogs(app.ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n%s (%s)\n", complaint.Title, complaint.ID)
			fmt.Printf("Status:   %s\n", complaint.Status)
			if complaint.AssignedWorkerID != "" {
				fmt.Printf("Worker:   %s\n", complaint.AssignedWorkerID)
			}
			fmt.Printf("\n%d transition(s):\n\n", len(logs))
			for _, log := range logs {
				fmt.Printf("  %s  %s -> %s  by %s", log.CreatedAt.Format(time.RFC3339), log.OldStatus, log.NewStatus, log.ChangedBy)
				if log.Note != "" {
					fmt.Printf("  (%s)", log.Note)
				}
				fmt.Println()
			}
			fmt.Println()

			return nil
		},
	}
}

func addUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-user <id> <name> <email> <role>",
		Short: "Register a user record (workers need --department)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := model.Role(args[3])
			if !role.IsValid() {
				return fmt.Errorf("unknown role %q", args[3])
			}
			department, _ := cmd.Flags().GetString("department")
			if role == model.RoleWorker && department == "" {
				return fmt.Errorf("--department is required for workers")
			}

			user := &model.User{
				ID:           args[0],
				Name:         args[1],
				Email:        args[2],
				Role:         role,
				DepartmentID: department,
				IsActive:     true,
			}
			if err := app.database.InsertUser(app.ctx, user); err != nil {
				return err
			}

			fmt.Printf("\n✓ User %s registered as %s\n\n", user.Name, user.Role)

			return nil
		},
	}

	cmd.Flags().String("department", "", "Department id the user belongs to")

	return cmd
}

func workloadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workloads <department_id>",
		Short: "Show active workers of a department with their current loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loads, err := services.DepartmentWorkloads(app.ctx, app.database, app.logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d active workers:\n\n", len(loads))
			for _, wl := range loads {
				marker := ""
				if wl.Load >= assignment.WorkloadCap {
					marker = " (at capacity)"
				}
				fmt.Printf("  %-30s %2d active%s\n", wl.Worker.Name, wl.Load, marker)
			}
			fmt.Println()

			return nil
		},
	}
}

func requestLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request-leave <worker_id> <start> <end> <reason...>",
		Short: "File a leave request for a worker",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(dateLayout, args[1])
			if err != nil {
				return fmt.Errorf("start date must be YYYY-MM-DD: %w", err)
			}
			end, err := time.Parse(dateLayout, args[2])
			if err != nil {
				return fmt.Errorf("end date must be YYYY-MM-DD: %w", err)
			}

			result, err := services.RequestLeave(app.ctx, app.database, app.logger, services.RequestLeaveInput{
				WorkerID:  args[0],
				StartDate: start,
				EndDate:   end,
				Reason:    strings.Join(args[3:], " "),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Leave request submitted (%s)\n", result.Leave.ID)
			if result.Warning != "" {
				fmt.Printf("⚠️  %s\n", result.Warning)
			}
			fmt.Println()

			return nil
		},
	}
}

func reviewLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review-leave <leave_id> <approved|rejected>",
		Short: "Approve or reject a pending leave request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := actor()
			if err != nil {
				return err
			}

			leave, err := services.ReviewLeave(app.ctx, app.database, app.logger, services.ReviewLeaveInput{
				LeaveID:  args[0],
				Actor:    act,
				Decision: model.LeaveStatus(args[1]),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Leave request %s\n\n", leave.Status)

			return nil
		},
	}
}

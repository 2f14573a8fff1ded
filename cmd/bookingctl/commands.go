package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booking-requests-api/internal/auth"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/store"
	"booking-requests-api/internal/validate"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo123"
	demoName     = "Demo User"
	demoPhone    = "+1234567890"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := app.store.Migrate(app.ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("Database is up to date")
				return nil
			}
			for _, f := range applied {
				fmt.Printf("applied %s\n", f)
			}
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator, or promote an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if !validate.Email(email) {
				return fmt.Errorf("invalid email %q", email)
			}
			if !validate.Password(password) {
				return errors.New("password must be at least 6 characters")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u, err := app.store.EnsureAdmin(app.ctx, email, hash, name)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			app.logger.Info("admin ready", zap.String("user_id", u.ID), zap.String("email", u.Email))
			fmt.Printf("%s is an administrator (id %s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Password for a new account; an existing password is kept")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name for a new account")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func seedDemoCmd() *cobra.Command {
	var withRequests bool

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: fmt.Sprintf("Create the demo account (%s / %s)", demoEmail, demoPassword),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(demoPassword)
			if err != nil {
				return err
			}
			u := &model.User{
				ID:           uuid.New().String(),
				Email:        demoEmail,
				PasswordHash: hash,
				Name:         demoName,
				Phone:        demoPhone,
				Role:         model.RoleUser,
			}
			err = app.store.CreateUser(app.ctx, u)
			if errors.Is(err, store.ErrDuplicateEmail) {
				fmt.Println("Demo user already exists")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to create demo user: %w", err)
			}
			fmt.Printf("Demo user created: %s / %s\n", demoEmail, demoPassword)

			if !withRequests {
				return nil
			}
			return seedRequests(u)
		},
	}

	cmd.Flags().BoolVar(&withRequests, "with-requests", true, "Also file one appointment and one help request")
	return cmd
}

func seedRequests(u *model.User) error {
	a := &model.Appointment{
		ID:             uuid.New().String(),
		UserID:         u.ID,
		BookerName:     u.Name,
		BookerPhone:    u.Phone,
		BookerEmail:    u.Email,
		AppointeeName:  u.Name,
		AppointeePhone: u.Phone,
		AppointeeEmail: u.Email,
		Relationship:   model.RelationshipSelf,
		Reason:         "Initial consultation",
		Department:     "General Consultation",
		PreferredDate:  time.Now().UTC().AddDate(0, 0, 7).Format(validate.DateLayout),
		PreferredTime:  "10:00",
		Status:         model.StatusPending,
	}
	if err := app.store.CreateAppointment(app.ctx, a); err != nil {
		return fmt.Errorf("failed to seed appointment: %w", err)
	}

	h := &model.HelpRequest{
		ID:                uuid.New().String(),
		UserID:            u.ID,
		Name:              u.Name,
		Phone:             u.Phone,
		Email:             u.Email,
		HelpType:          "Food Assistance",
		Urgency:           "Medium",
		Description:       "Weekly grocery support for a family of three",
		ContactPreference: model.ContactEmail,
		Status:            model.StatusPending,
	}
	if err := app.store.CreateHelpRequest(app.ctx, h); err != nil {
		return fmt.Errorf("failed to seed help request: %w", err)
	}
	fmt.Println("Seeded one appointment and one help request")
	return nil
}

func statsCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print request counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.store.Stats(app.ctx, owner)
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tTOTAL\tPENDING\tAPPROVED\tREJECTED\tIN PROGRESS")
			for _, row := range []struct {
				kind string
				c    model.StatusCounts
			}{
				{"appointments", st.Appointments},
				{"help requests", st.HelpRequests},
			} {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
					row.kind, row.c.Total, row.c.Pending, row.c.Approved, row.c.Rejected, row.c.InProgress)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&owner, "user", "", "Only count records of this user id")
	return cmd
}

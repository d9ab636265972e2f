package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/katalyst/internal/catalog"
	"github.com/verte-zerg/katalyst/internal/quiz"
	"github.com/verte-zerg/katalyst/internal/report"
	"github.com/verte-zerg/katalyst/internal/store"
)

var progressUser string

func newCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses on the server",
		Args:  cobra.NoArgs,
		RunE:  runCoursesCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <file>",
		Short: "Upload a course written in YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runCoursesAddCmd,
	})
	return cmd
}

func runCoursesAddCmd(cmd *cobra.Command, args []string) error {
	if err := applyClientConfig(cmd); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read course file: %w", err)
	}
	course, err := catalog.ParseCourse(data)
	if err != nil {
		return err
	}
	cl, err := newAPIClient()
	if err != nil {
		return err
	}
	created, err := cl.CreateCourse(cmd.Context(), course)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	summary := created.Summary()
	if _, err := fmt.Fprintf(os.Stdout, "Created %s (%d lessons, %d questions).\n",
		summary.ID, summary.LessonCount, summary.QuestionCount); err != nil {
		return err
	}
	return nil
}

func runCoursesCmd(cmd *cobra.Command, _ []string) error {
	if err := applyClientConfig(cmd); err != nil {
		return err
	}
	cl, err := newAPIClient()
	if err != nil {
		return err
	}
	courses, err := cl.ListCourses(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	return report.WriteCourses(os.Stdout, courses, report.OptionsFor(os.Stdout))
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <course-id>",
		Short: "Show recorded progress for a course",
		Args:  cobra.ExactArgs(1),
		RunE:  runProgressCmd,
	}
	cmd.Flags().StringVar(&progressUser, "user", "", "learner to report on (default: this learner)")
	return cmd
}

func runProgressCmd(cmd *cobra.Command, args []string) error {
	if err := applyClientConfig(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	userID := progressUser
	if userID == "" {
		var err error
		userID, err = localUserID(ctx)
		if err != nil {
			return err
		}
	}
	cl, err := newAPIClient()
	if err != nil {
		return err
	}
	course, err := cl.GetCourse(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load course %s: %w", args[0], err)
	}
	rec, err := cl.GetProgress(ctx, userID, course.ID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	p := report.Progress{Course: course, UserID: userID, Record: rec}
	return report.WriteProgress(os.Stdout, p, report.OptionsFor(os.Stdout))
}

func localUserID(ctx context.Context) (string, error) {
	st, err := store.Open(clientDBPath)
	if err != nil {
		return "", fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return resolveUserID(ctx, st)
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <course-id>",
		Short: "Discard the local quiz session for a course",
		Args:  cobra.ExactArgs(1),
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(clientDBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.DeleteSnapshot(cmd.Context(), quiz.SnapshotKey(args[0])); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	if _, err := fmt.Fprintf(os.Stdout, "Session for %s cleared.\n", args[0]); err != nil {
		return err
	}
	return nil
}

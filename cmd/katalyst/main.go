// Package main provides the CLI entrypoint for katalyst.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/katalyst/internal/client"
	"github.com/verte-zerg/katalyst/internal/config"
	"github.com/verte-zerg/katalyst/internal/courseui"
	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/quiz"
	"github.com/verte-zerg/katalyst/internal/store"
	"github.com/verte-zerg/katalyst/internal/tui"
)

const (
	defaultServerURL = "http://localhost:5000"
	defaultAPIKey    = "secret123"
	defaultSyncScope = string(quiz.ScopeCourse)
	defaultTimeout   = 10 * time.Second
)

var (
	clientServerURL string
	clientAPIKey    string
	clientUserID    string
	clientSyncScope string
	clientTimeout   time.Duration
	clientDBPath    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "katalyst [course-id]",
		Short:         "Terminal quiz client and progress server",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runQuizCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&clientServerURL, "server-url", defaultServerURL, "progress server base URL")
	flags.StringVar(&clientAPIKey, "api-key", defaultAPIKey, "shared API key sent as x-api-key")
	flags.StringVar(&clientUserID, "user-id", "", "learner id (default: generated once and stored)")
	flags.StringVar(&clientSyncScope, "sync-scope", defaultSyncScope, "lessons reported on advance: course or lesson")
	flags.DurationVar(&clientTimeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.StringVar(&clientDBPath, "db-path", config.DefaultClientDBPath(), "local session database")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCoursesCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// applyClientConfig resolves client settings: flag, then environment, then
// config file, then the flag default.
func applyClientConfig(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server-url", &clientServerURL, config.EnvServerURL, fileCfg.Client.ServerURL)
	applyStringConfig(cmd, "api-key", &clientAPIKey, config.EnvAPIKey, fileCfg.Client.APIKey)
	applyStringConfig(cmd, "user-id", &clientUserID, config.EnvUserID, fileCfg.Client.UserID)
	applyStringConfig(cmd, "sync-scope", &clientSyncScope, config.EnvSyncScope, fileCfg.Client.SyncScope)
	applyDurationConfig(cmd, "timeout", &clientTimeout, "", fileCfg.Client.Timeout)
	return validateClientConfig()
}

func validateClientConfig() error {
	switch quiz.SyncScope(clientSyncScope) {
	case quiz.ScopeCourse, quiz.ScopeLesson:
	default:
		return fmt.Errorf("--sync-scope must be %q or %q", quiz.ScopeCourse, quiz.ScopeLesson)
	}
	if clientTimeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	return nil
}

func newAPIClient() (*client.Client, error) {
	return client.New(client.Options{
		BaseURL: clientServerURL,
		APIKey:  clientAPIKey,
		Timeout: clientTimeout,
	})
}

// resolveUserID returns the configured learner id, or the one stored in the
// local database, generating it on first use.
func resolveUserID(ctx context.Context, st *store.Store) (string, error) {
	if clientUserID != "" {
		return clientUserID, nil
	}
	id, err := st.EnsureSetting(ctx, store.SettingUserID, uuid.NewString)
	if err != nil {
		return "", fmt.Errorf("failed to load learner id: %w", err)
	}
	return id, nil
}

func runQuizCmd(cmd *cobra.Command, args []string) error {
	if err := applyClientConfig(cmd); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the quiz needs an interactive terminal")
	}

	log, err := newClientLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(clientDBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	userID, err := resolveUserID(ctx, st)
	if err != nil {
		return err
	}
	cl, err := newAPIClient()
	if err != nil {
		return err
	}

	courseID := ""
	if len(args) == 1 {
		courseID = args[0]
	} else {
		courseID, err = pickCourse(ctx, cl)
		if err != nil {
			return err
		}
		if courseID == "" {
			return nil
		}
	}

	course, err := cl.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to load course %s: %w", courseID, err)
	}

	session := quiz.NewSession(course, st, cl, quiz.Options{
		UserID: userID,
		Scope:  quiz.SyncScope(clientSyncScope),
		Logger: log.With("user_id", userID),
	})
	program := tea.NewProgram(tui.NewModel(session, log), tea.WithAltScreen())
	_, runErr := program.Run()
	session.Wait()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func pickCourse(ctx context.Context, cl *client.Client) (string, error) {
	courses, err := cl.ListCourses(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list courses: %w", err)
	}
	picker := courseui.NewModel(courses)
	if _, err := tea.NewProgram(picker, tea.WithAltScreen()).Run(); err != nil {
		return "", fmt.Errorf("failed to run course picker: %w", err)
	}
	id, _ := picker.Selected()
	return id, nil
}

// newClientLogger writes to a file so log lines never land on the quiz screen.
func newClientLogger() (*logger.Logger, error) {
	path := config.DefaultClientLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	mode := "production"
	if v := config.EnvString(config.EnvLogMode); v != nil {
		mode = *v
	}
	log, err := logger.New(mode, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return log, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target *string, env string, value *string) {
	if cmd.Flags().Changed(name) {
		return
	}
	if env != "" {
		if v := config.EnvString(env); v != nil {
			*target = *v
			return
		}
	}
	if value != nil {
		*target = *value
	}
}

func applyBoolConfig(cmd *cobra.Command, name string, target *bool, env string, value *bool) {
	if cmd.Flags().Changed(name) {
		return
	}
	if env != "" {
		if v := config.EnvBool(env); v != nil {
			*target = *v
			return
		}
	}
	if value != nil {
		*target = *value
	}
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, env string, value *config.Duration) {
	if cmd.Flags().Changed(name) {
		return
	}
	if env != "" {
		if v := config.EnvDuration(env); v != nil {
			*target = *v
			return
		}
	}
	if value != nil {
		*target = value.Duration
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# katalyst configuration
# Uncomment a value to enable it. CLI flags and environment variables
# override config values.

[client]
# server-url = %q   # Progress server base URL
# api-key = %q                  # Shared key sent as x-api-key
# user-id = "me"                         # Learner id (default: generated once)
# sync-scope = %q                  # Lessons reported on advance: course or lesson
# timeout = %q                          # HTTP request timeout

[server]
# addr = %q                         # Listen address (PORT env also works)
# api-key = %q                  # Key required in x-api-key
# storage = %q                    # memory, sqlite or redis
# db-path = "/path/to/server.db"         # SQLite database for storage = "sqlite"
# redis-addr = %q           # Redis address for storage = "redis"
# seed = true                            # Load the built-in courses on start
# log-mode = %q               # development or production
`,
		defaultServerURL,
		defaultAPIKey,
		defaultSyncScope,
		defaultTimeout.String(),
		defaultAddr,
		defaultAPIKey,
		defaultStorage,
		defaultRedisAddr,
		defaultLogMode,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

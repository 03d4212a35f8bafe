// cmd/portal-cli/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"intern-portal/internal/common/config"
	"intern-portal/internal/common/errors"
	"intern-portal/internal/common/logger"
	"intern-portal/internal/common/observability"
	"intern-portal/internal/common/session"
	"intern-portal/internal/notify"
	"intern-portal/internal/portal"
	"intern-portal/internal/submission"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: portal-cli <command> [flags]

Commands:
  login         Authenticate and persist the session token
  logout        End the session
  programs      List open internship and NYSC programs
  applications  List your applications
  submit        Submit an application with supporting documents
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddress, mux); err != nil {
				log.WithError(err).Warn("Metrics listener stopped", nil)
			}
		}()
	}

	sess := session.New(cfg.Session)
	defer sess.Close()
	if err := sess.Initialize(ctx); err != nil {
		log.WithError(err).Warn("Could not restore persisted session", nil)
	}

	client := portal.NewClient(cfg.API, sess, log)

	app := &cli{
		cfg:     cfg,
		logger:  log,
		session: sess,
		client:  client,
		obs:     obs,
	}

	var runErr error
	switch os.Args[1] {
	case "login":
		runErr = app.login(ctx, os.Args[2:])
	case "logout":
		runErr = app.logout(ctx)
	case "programs":
		runErr = app.programs(ctx)
	case "applications":
		runErr = app.applications(ctx)
	case "submit":
		runErr = app.submit(ctx, os.Args[2:])
	default:
		usage()
	}

	if runErr != nil {
		category := errors.GetErrorCategory(errors.CodeOf(runErr))
		log.WithError(runErr).Error("Command failed", map[string]interface{}{
			"category": category,
		})
		switch category {
		case "TRANSPORT":
			fmt.Fprintln(os.Stderr, "The portal could not be reached, try again in a moment.")
		case "AUTH":
			fmt.Fprintln(os.Stderr, "Run `portal-cli login` to start a new session.")
		}
		os.Exit(1)
	}
}

type cli struct {
	cfg     *config.Config
	logger  logger.Logger
	session *session.Context
	client  *portal.Client
	obs     *observability.Observability
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "portal username")
	fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("login requires -username")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	user, err := c.client.Login(ctx, *username, password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s (%s)\n", user.FirstName, user.LastName, user.Username)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (c *cli) programs(ctx context.Context) error {
	programs, err := c.client.ListPrograms(ctx)
	if err != nil {
		return err
	}
	for _, p := range programs {
		fmt.Printf("%4d  %-6s %-40s deadline=%s active=%t\n",
			p.ID, p.ProgramType, p.Name, p.ApplicationDeadline, p.IsActive)
	}
	return nil
}

func (c *cli) applications(ctx context.Context) error {
	apps, err := c.client.ListMyApplications(ctx)
	if err != nil {
		return err
	}
	for _, a := range apps {
		fmt.Printf("%4d  %-30s %-12s submitted=%s\n", a.ID, a.ProgramName, a.Status, a.SubmittedAt)
	}
	return nil
}

// cachedClient serves document types from the redis-backed cache while
// delegating everything else to the portal client.
type cachedClient struct {
	*portal.Client
	cache *portal.DocumentTypeCache
}

func (c *cachedClient) ListDocumentTypes(ctx context.Context) ([]portal.DocumentType, error) {
	return c.cache.Types(ctx)
}

// fileFlags collects repeated -file categoryID:path pairs.
type fileFlags []string

func (f *fileFlags) String() string     { return strings.Join(*f, ",") }
func (f *fileFlags) Set(v string) error { *f = append(*f, v); return nil }

func (c *cli) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	programID := fs.Int("program", 0, "program id to apply to")
	coverLetter := fs.String("cover-letter", "", "cover letter text, or @path to a file")
	whyInterested := fs.String("why-interested", "", "why you are interested, or @path")
	skills := fs.String("skills", "", "skills and experience, or @path")
	startDate := fs.String("start-date", "", "availability start date (YYYY-MM-DD)")
	var files fileFlags
	fs.Var(&files, "file", "document as categoryID:path, repeatable")
	fs.Parse(args)

	if *programID <= 0 {
		return fmt.Errorf("submit requires -program")
	}

	draft := submission.NewDraft(*programID)
	var err error
	if draft.Fields.CoverLetter, err = textArg(*coverLetter); err != nil {
		return err
	}
	if draft.Fields.WhyInterested, err = textArg(*whyInterested); err != nil {
		return err
	}
	if draft.Fields.SkillsAndExperience, err = textArg(*skills); err != nil {
		return err
	}
	draft.Fields.AvailabilityStartDate = *startDate

	for _, spec := range files {
		typeID, attachment, err := loadAttachment(spec)
		if err != nil {
			return err
		}
		draft.Attach(typeID, attachment)
	}

	var apiClient submission.APIClient = c.client
	if rdb := c.session.Redis(); rdb != nil {
		apiClient = &cachedClient{
			Client: c.client,
			cache:  portal.NewDocumentTypeCache(c.client, rdb, c.cfg.Cache.DocumentTypesTTL, c.logger),
		}
	}

	orch, err := submission.NewOrchestrator(submission.Dependencies{
		Client:        apiClient,
		Notifier:      notify.NewLogNotifier(c.logger),
		Logger:        c.logger,
		Observability: c.obs,
	}, submission.FromAppConfig(c.cfg))
	if err != nil {
		return err
	}

	go reportProgress(orch.Tracker().Subscribe())

	result, err := orch.Submit(ctx, draft)
	if err != nil {
		return err
	}
	orch.Tracker().Reset()

	printResult(result)
	if result.Outcome != submission.OutcomeSuccess {
		os.Exit(1)
	}
	return nil
}

// textArg resolves a flag value: a leading @ loads the text from a file.
func textArg(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}

func loadAttachment(spec string) (int, submission.FileAttachment, error) {
	idx := strings.Index(spec, ":")
	if idx <= 0 {
		return 0, submission.FileAttachment{}, fmt.Errorf("file spec %q must be categoryID:path", spec)
	}
	typeID, err := strconv.Atoi(spec[:idx])
	if err != nil {
		return 0, submission.FileAttachment{}, fmt.Errorf("file spec %q has a non-numeric category id", spec)
	}
	path := spec[idx+1:]
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, submission.FileAttachment{}, fmt.Errorf("read document %s: %w", path, err)
	}
	return typeID, submission.FileAttachment{
		Name:     filepath.Base(path),
		Size:     int64(len(content)),
		MIMEType: mimeTypeFor(path),
		Content:  content,
	}, nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}

func reportProgress(events <-chan submission.ProgressEvent) {
	for ev := range events {
		if ev.State == submission.TaskFailed {
			fmt.Fprintf(os.Stderr, "upload %s: failed: %s\n", ev.TaskID, ev.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "upload %s: %3d%% %s\n", ev.TaskID, ev.Percent, ev.State)
	}
}

func printResult(result *submission.SubmissionResult) {
	switch result.Outcome {
	case submission.OutcomeSuccess:
		fmt.Printf("Application %d submitted, %d document(s) uploaded\n", result.ApplicationID, result.UploadedCount)
	case submission.OutcomePartialFailure:
		fmt.Printf("Application %d submitted, but some documents failed:\n", result.ApplicationID)
		for _, f := range result.FailedUploads {
			fmt.Printf("  - %s (%s): %s\n", f.DocumentTypeName, f.FileName, f.Reason)
		}
		fmt.Println("Retry the failed categories from the application page.")
	case submission.OutcomeValidationFailed:
		fmt.Println("Application not submitted, fix these fields:")
		keys := make([]string, 0, len(result.FieldErrors))
		for k := range result.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  - %s: %s\n", k, result.FieldErrors[k])
		}
	case submission.OutcomeDuplicateRejected:
		fmt.Println("You already have an active application for this program.")
	case submission.OutcomeProgramClosed:
		fmt.Printf("Not submitted: %s\n", result.Reason)
	default:
		fmt.Printf("Submission failed: %s\n", result.Reason)
	}
	if result.DuplicateCheckSkipped {
		fmt.Println("Note: the duplicate pre-check could not run; the server result above is authoritative.")
	}
}

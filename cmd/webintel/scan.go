package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/website-intel/internal/application"
	appauth "github.com/bryanwahyu/website-intel/internal/application/auth"
	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/infra/backend"
	"github.com/bryanwahyu/website-intel/internal/infra/db/memory"
)

const pollInterval = 200 * time.Millisecond

// scanOptions are the flags of the scan command.
type scanOptions struct {
	APIURL   string
	Username string
	Password string
	OutDir   string
	URL      string

	// zero values use the service defaults
	scans appscans.Options
}

func newScanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan one website from the terminal and save the JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.APIURL == "" {
				opts.APIURL = cfg.Backend.BaseURL
			}
			if opts.Password == "" {
				opts.Password = os.Getenv("WEBINTEL_PASSWORD")
			}
			opts.URL = args[0]

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runScan(ctx, opts, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "Backend base URL (default from config)")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "Backend username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Backend password (or WEBINTEL_PASSWORD)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "Directory for the JSON export")
	return cmd
}

// runScan logs in, submits one URL, waits for the result and writes the
// export file into opts.OutDir.
func runScan(ctx context.Context, opts scanOptions, logger *log.Logger, out io.Writer) error {
	if opts.Username == "" {
		return errors.New("please provide --username")
	}

	client, err := backend.NewClient(opts.APIURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}
	scanOpts := opts.scans
	scanOpts.Logger = logger
	scansSvc := appscans.NewService(client, scanOpts)
	defer scansSvc.Close()
	authSvc := &appauth.Service{
		Repo:    memory.NewSessionRepository(),
		Auth:    client,
		Clock:   application.SystemClock{},
		Logger:  logger,
		Discard: scansSvc,
	}
	client.SetUnauthorizedHook(authSvc.Unauthorized)

	sess, err := authSvc.Login(ctx, opts.Username, opts.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := authSvc.Logout(context.Background(), sess.ID); err != nil {
			logger.Warn("logout failed", "session", sess.ID, "err", err)
		}
	}()

	if _, err := scansSvc.Submit(sess, opts.URL); err != nil {
		return err
	}

	view, err := waitForScan(ctx, scansSvc, sess.ID, out)
	if err != nil {
		return err
	}
	if view.State == appscans.StateFailed {
		return errors.New(view.Error)
	}
	_, err = writeExport(out, view.Result, opts.OutDir)
	return err
}

// waitForScan polls the submission and mirrors its progress in a spinner.
func waitForScan(ctx context.Context, svc *appscans.Service, sessionID string, w io.Writer) (appscans.SubmissionView, error) {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		view := svc.Submission(sessionID)
		s.Lock()
		s.Suffix = fmt.Sprintf(" %3d%% %s", view.Progress.Percent, view.Progress.Message)
		s.Unlock()
		if !view.Busy() {
			return view, nil
		}
		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-ticker.C:
		}
	}
}

// writeExport saves the export under outDir and returns the file path.
func writeExport(out io.Writer, scan *domain.Scan, outDir string) (string, error) {
	if scan == nil {
		return "", errors.New("scan finished without a result")
	}
	data, err := domain.ExportJSON(scan.StructuredData)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	// nama file selalu di dalam outDir
	file := filepath.Join(outDir, filepath.Base(domain.ExportFilename(scan.StructuredData)))
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return "", err
	}

	r := scan.StructuredData
	fmt.Fprintf(out, "Scan completed successfully! %s (%s)\n", r.CompanyName, r.Website)
	fmt.Fprintf(out, "  emails: %d  phones: %d  socials: %d  addresses: %d\n",
		len(r.Emails), len(r.PhoneNumbers), len(r.Socials), len(r.Addresses))
	fmt.Fprintf(out, "  saved %s (%s)\n", file, humanize.Bytes(uint64(len(data))))
	return file, nil
}

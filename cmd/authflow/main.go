// Command authflow walks the onboarding flow in a terminal.
//
// It renders the same page model a browser host would drive, prompting for
// whatever the visible step collects. Configuration is read from AUTHFLOW_*
// variables; point AUTHFLOW_REMOTE_BASE_URL at a running server, for example
// the one in examples/devserver.
//
// Set -metrics-addr to expose the flow counters for Prometheus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/MrEthical07/authflow"
	promexport "github.com/MrEthical07/authflow/metrics/export/prometheus"
	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/view"
)

var errQuit = errors.New("quit")

func main() {
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address when set")
	flag.Parse()

	cfg, err := authflow.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := authflow.NewLogger(cfg.Log, os.Stderr)

	page := view.NewLayout(view.Layout{IDs: cfg.Elements, Indicators: cfg.Progress.Indicators})
	f, err := authflow.New().
		WithConfig(cfg).
		WithDocument(page).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, promexport.NewExporter(f), logger)
	}

	ctx := context.Background()
	if err := f.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	h := &host{flow: f, page: page, ids: cfg.Elements}
	if err := h.run(ctx); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, exp *promexport.Exporter, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

type host struct {
	flow *authflow.Flow
	page *view.Page
	ids  view.IDs
}

func (h *host) run(ctx context.Context) error {
	for {
		h.render()
		var err error
		switch h.flow.CurrentStep() {
		case step.Invitation:
			err = h.invitation(ctx)
		case step.Email:
			err = h.email(ctx)
		case step.Verify:
			err = h.verify(ctx)
		case step.Success:
			err = h.success(ctx)
		default:
			return fmt.Errorf("no step is visible")
		}
		if err := userExit(err); err != nil {
			return err
		}
	}
}

// render prints the progress fill and the visible error message.
func (h *host) render() {
	fill := strings.TrimSuffix(strings.TrimPrefix(h.page.Node(h.ids.ProgressFill).Attr("style"), "width: "), "%")
	fmt.Printf("\n[%s%%] %s\n", fill, h.flow.CurrentStep())
	if msg := h.flow.ErrorMessage(); msg != "" {
		fmt.Printf("  ! %s\n", msg)
	}
}

func (h *host) invitation(ctx context.Context) error {
	code, err := (&promptui.Prompt{Label: "Invitation code"}).Run()
	if err != nil {
		return err
	}
	return h.flow.SubmitInvitationCode(ctx, code)
}

func (h *host) email(ctx context.Context) error {
	email, err := (&promptui.Prompt{
		Label:   "Email",
		Default: h.flow.Email(),
	}).Run()
	if err != nil {
		return err
	}
	return h.flow.SubmitEmail(ctx, email)
}

func (h *host) verify(ctx context.Context) error {
	fmt.Printf("  a code was sent to %s\n", h.flow.Email())
	_, choice, err := (&promptui.Select{
		Label: "Next",
		Items: []string{"Enter code", "Use a different email", "Quit"},
	}).Run()
	if err != nil {
		return err
	}
	switch choice {
	case "Use a different email":
		return h.flow.Back(ctx)
	case "Quit":
		return errQuit
	}
	code, err := (&promptui.Prompt{Label: "Verification code", Mask: '*'}).Run()
	if err != nil {
		return err
	}
	return h.flow.SubmitVerificationCode(ctx, code)
}

func (h *host) success(ctx context.Context) error {
	fmt.Printf("  signed in as %s\n", h.page.Node(h.ids.UserEmail).Text())
	_, choice, err := (&promptui.Select{
		Label: "Signed in",
		Items: []string{"Log out", "Quit"},
	}).Run()
	if err != nil {
		return err
	}
	if choice == "Quit" {
		return errQuit
	}
	return h.flow.Logout(ctx)
}

// userExit keeps flow errors inside the loop, where they show as the error
// message, and ends the loop on quit or an interrupted prompt.
func userExit(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errQuit), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return errQuit
	case errors.Is(err, authflow.ErrClosed):
		return err
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"checkout-service/internal/config"
	"checkout-service/internal/logging"
	"checkout-service/internal/payment"
	"checkout-service/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newPayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pay",
		Short:   "Create a payment and wait for it to be confirmed",
		Example: `  checkout pay --name "Asha M" --email asha@example.com --phone 255700000000 --amount 1000`,
		RunE:    runPay,
	}

	cmd.Flags().String("name", "", "Payer full name")
	cmd.Flags().String("email", "", "Payer email")
	cmd.Flags().String("phone", "", "Payer phone number (e.g. 2557...)")
	cmd.Flags().String("amount", "", "Amount in TZS")
	cmd.Flags().BoolP("verbose", "v", false, "Log gateway traffic")

	return cmd
}

// statusPrinter writes the status line each time it changes.
type statusPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func (p *statusPrinter) Render(view session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view.Status == "" || view.Status == p.last {
		return
	}
	p.last = view.Status
	fmt.Fprintln(p.out, view.Status)
}

func runPay(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var form payment.Form
	form.Name, _ = cmd.Flags().GetString("name")
	form.Email, _ = cmd.Flags().GetString("email")
	form.Phone, _ = cmd.Flags().GetString("phone")
	form.Amount, _ = cmd.Flags().GetString("amount")

	logger := logging.NewConsoleLogger(cmd.ErrOrStderr(), slog.LevelWarn)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = logging.NewConsoleLogger(cmd.ErrOrStderr(), slog.LevelDebug)
	}

	a := newApp(cfg, logger)
	defer a.Close(logger)

	sess := session.New(uuid.New().String(), session.WithRenderer(&statusPrinter{out: cmd.OutOrStdout()}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.initiator.Submit(ctx, sess, form); err != nil {
		return err
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		sess.Cancel()
	}

	view := sess.Snapshot()
	if view.State != session.StateCompleted {
		return fmt.Errorf("payment %s for order %s after %d attempts", view.State, view.OrderID, view.Attempts)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Continue at %s\n", view.RedirectURL)
	return nil
}

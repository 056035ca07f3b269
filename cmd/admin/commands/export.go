package commands

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	product "github.com/angelmondragon/invoicedesk-backend/internal/products"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
)

const activityExportLimit = 5000

func newExportCommand(resolve resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write invoices or the activity log to a file",
	}
	cmd.AddCommand(newExportInvoicesCommand(resolve), newExportActivityCommand(resolve))
	return cmd
}

// output opens path for writing; "-" is stdout.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newExportInvoicesCommand(resolve resolver) *cobra.Command {
	var (
		out   string
		input invoice.ListInvoicesInput
	)
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Export invoices as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolve(cmd)
			if err != nil {
				return err
			}
			products, err := product.NewService(e.repos.Products, e.activity)
			if err != nil {
				return err
			}
			svc, err := invoice.NewService(invoice.ServiceParams{Repo: e.repos.Invoices, Catalog: products, Activity: e.activity})
			if err != nil {
				return err
			}
			rows, err := svc.Export(cmd.Context(), input)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "export failed", err, "")
			}

			printable := make([]export.Invoice, 0, len(rows))
			for _, row := range rows {
				printable = append(printable, row.Printable())
			}

			w, closeFn, err := output(cmd, out)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open output", err, "")
			}
			if err := export.InvoicesCSV(w, printable); err != nil {
				_ = closeFn()
				return failure(cmd.ErrOrStderr(), "export failed", err, "")
			}
			if err := closeFn(); err != nil {
				return err
			}
			if out != "" && out != "-" {
				success(cmd.ErrOrStderr(), "wrote %d invoices to %s", len(printable), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&input.Status, "status", "", "paid, partially or unpaid")
	cmd.Flags().StringVar(&input.Query, "q", "", "customer search")
	return cmd
}

func newExportActivityCommand(resolve resolver) *cobra.Command {
	var (
		out   string
		input activity.ListInput
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Export the activity log as PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolve(cmd)
			if err != nil {
				return err
			}
			if input.Limit <= 0 || input.Limit > activityExportLimit {
				input.Limit = activityExportLimit
			}
			entries, err := e.activity.List(cmd.Context(), input)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "export failed", err, "")
			}

			w, closeFn, err := output(cmd, out)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open output", err, "")
			}
			if err := export.ActivityPDF(w, activity.ExportRows(entries), time.Now()); err != nil {
				_ = closeFn()
				return failure(cmd.ErrOrStderr(), "export failed", err, "")
			}
			if err := closeFn(); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "wrote %d entries to %s", len(entries), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "activity-log.pdf", "output file, - for stdout")
	cmd.Flags().StringVar(&input.Type, "type", "", "info, success, warning or error")
	cmd.Flags().StringVar(&input.Query, "q", "", "search text")
	cmd.Flags().IntVar(&input.Limit, "limit", activityExportLimit, "maximum entries")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/electronjoe/go-mopeka/pkg/mopeka"
)

var (
	discoverDuration time.Duration
	discoverHCI      int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find sensors whose sync button is pressed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var svc *mopeka.Service
		svc = mopeka.NewService(gattScannerFactory(func(report []byte) {
			outcome, _ := svc.ProcessReport(report)
			mopekaRx.WithLabelValues(outcome.String()).Inc()
		}))
		svc.SetHostControllerIndex(discoverHCI)
		if err := svc.EnterDiscoveryMode(); err != nil {
			return err
		}
		if err := svc.Start(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Press the sync button on each sensor. Scanning for %s\n", discoverDuration)
		select {
		case <-time.After(discoverDuration):
		case <-ctx.Done():
		}
		if err := svc.Stop(); err != nil {
			return err
		}
		return printDiscovered(out, svc)
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverDuration, "duration", 10*time.Second, "how long to scan")
	discoverCmd.Flags().IntVar(&discoverHCI, "hci", 0, "host controller index (-1 for the first available)")
}

func printDiscovered(w io.Writer, svc *mopeka.Service) error {
	found := svc.Discovered()
	fmt.Fprintf(w, "\nFinished Discovery.  Found %d new sensors\n", len(found))
	fmt.Fprintf(w, "Stats %s\n", svc.Stats())
	for _, s := range found {
		if err := s.Dump(w); err != nil {
			return err
		}
	}
	if len(found) > 0 {
		fmt.Fprintln(w, "Add to IDToNames in devices.yml:")
		for i, s := range found {
			fmt.Fprintf(w, "  %q: tank-%d\n", s.Address().String(), i+1)
		}
	}
	return nil
}

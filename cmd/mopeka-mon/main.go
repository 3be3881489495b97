// Mopeka-mon listens for Mopeka Pro Check propane tank sensors over BLE and
// exports their readings as Prometheus metrics and MQTT messages.
//
// Usage:
//
//	mopeka-mon monitor [--config configs/devices.yml]
//	mopeka-mon discover [--duration 10s]
//	mopeka-mon decode <hex report>
//
// For log output to the command line, add --logtostderr (and -v=3 for every reading).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mopeka-mon",
	Short: "Mopeka Pro Check propane tank monitor",
	Long: `Listens for BLE advertisements from Mopeka Pro Check propane tank sensors,
decodes tank level, temperature and battery, and exports them on /metrics,
optionally publishing to MQTT and driving tank heater outlets.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog refuses to log until the Go flag set reports parsed.
		_ = flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/devices.yml", "path to the devices YAML config")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(decodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/electronjoe/go-mopeka/pkg/mopeka"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex report>",
	Short: "Decode one raw advertising report, RSSI byte last",
	Example: `  mopeka-mon decode 01 00 01 76 3C C4 05 9D E7 12 0D FF 59 00 03 5D 31 2C C1 C4 3C 76 3B F9 03 02 E5 FE A0`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd.OutOrStdout(), args)
	},
}

func runDecode(w io.Writer, args []string) error {
	s := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.Join(args, ""))
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("report must be hex: %w", err)
	}

	a, err := mopeka.Decode(raw)
	if mopeka.IsNoGapData(err) {
		fmt.Fprintln(w, "No GAP data; sensors send these between readings.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Address: %s\n", a.Address)
	if a.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", a.Name)
	}
	fmt.Fprintf(w, "Tank Level: %d mm (%.2f in)\n", a.TankLevelMM(), a.TankLevelInches())
	return a.Dump(w)
}

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"lipidlibrarian/internal/adducts"
	"lipidlibrarian/pkg/models"
)

func newAdductsCmd() *cobra.Command {
	var polarity string
	cmd := &cobra.Command{
		Use:   "adducts",
		Short: "List the adducts accepted in m/z queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := selectAdducts(adducts.Default(), polarity)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMASS\tCHARGE\tSWISSLIPIDS\tLIPIDMAPS")
			for _, a := range items {
				fmt.Fprintf(tw, "%s\t%.6f\t%+d\t%s\t%s\n", a.Name, a.AdductMass, a.Charge, a.SwissLipidsName, a.LipidMapsName)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&polarity, "polarity", "", "Only list positive or negative adducts")
	return cmd
}

func selectAdducts(c *adducts.Catalog, polarity string) ([]*models.Adduct, error) {
	switch strings.ToLower(polarity) {
	case "":
		return c.All(), nil
	case "positive", "pos", "+":
		return c.Positive(), nil
	case "negative", "neg", "-":
		return c.Negative(), nil
	}
	return nil, errors.WithHint(errors.Newf("unknown polarity %q", polarity), "use positive or negative")
}

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"multitool/internal/core"
	"multitool/internal/taxcalc"
)

func calcCmd() *cobra.Command {
	var (
		paramsFile string
		year       int
		income     string
		period     string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute income tax and NI offline",
		Long: `Compute income tax and National Insurance without a server or database.

Parameters are read from a YAML file shaped like:

  year: 2025
  incomeTax:
    personalAllowance: 12570
    basicRate: 20
    ...
  nationalInsurance:
    primaryThreshold: 12570
    ...

Without --params the built-in defaults for --year are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(income)
			if err != nil {
				return err
			}
			p, err := taxcalc.ParsePeriod(period)
			if err != nil {
				return err
			}

			params := core.DefaultParameters(year)
			if paramsFile != "" {
				if params, err = loadParameters(paramsFile, year); err != nil {
					return err
				}
			}

			res, err := taxcalc.Compute(params, amount)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), params.Year, res, taxcalc.Summarize(res, p))
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params", "", "YAML file with tax year parameters")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "tax year")
	cmd.Flags().StringVar(&income, "income", "", "gross annual income")
	cmd.Flags().StringVar(&period, "period", string(taxcalc.Annual), "annual or monthly")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

// loadParameters reads a parameter file. Every rate and threshold must be
// present; a year in the file wins over the flag.
func loadParameters(path string, year int) (core.TaxYearParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.TaxYearParameters{}, fmt.Errorf("read params: %w", err)
	}

	var in core.ParametersInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return core.TaxYearParameters{}, fmt.Errorf("parse params %s: %w", path, err)
	}
	if in.Year == nil {
		in.Year = &year
	}
	p, err := in.Complete()
	if err != nil {
		return core.TaxYearParameters{}, fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

func printSummary(out io.Writer, year int, res taxcalc.Result, s taxcalc.Summary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Tax year %d, %s\t\t\t\t\n", year, s.Period)
	fmt.Fprintf(tw, "Gross\t%s\t\t\t\n", core.FormatPounds(s.Gross))
	fmt.Fprintf(tw, "Tax at 20/40/45%%\t%s\t%s\t%s\t\n",
		core.FormatPounds(res.Tax20), core.FormatPounds(res.Tax40), core.FormatPounds(res.Tax45))
	fmt.Fprintln(tw, "\tEmployed\tSelf-employed\tPensioner\t")
	row := func(label string, f func(taxcalc.Outcome) string) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", label, f(s.Employed), f(s.SelfEmployed), f(s.Pensioner))
	}
	row("Income tax", func(o taxcalc.Outcome) string { return core.FormatPounds(o.IncomeTax) })
	row("NI", func(o taxcalc.Outcome) string { return core.FormatPounds(o.NationalInsurance) })
	row("Net", func(o taxcalc.Outcome) string { return core.FormatPounds(o.Net) })
	row("Effective rate", func(o taxcalc.Outcome) string { return fmt.Sprintf("%.2f%%", o.EffectiveRate) })
	tw.Flush()
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/exteriorpros/paintstudio/pkg/api"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

func newColorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "colors",
		Short:       "Browse the colours served by the colour server",
		Annotations: map[string]string{"config": "required"},
	}
	cmd.AddCommand(newColorsListCmd(), newColorsOptionsCmd())
	return cmd
}

func newColorsListCmd() *cobra.Command {
	var (
		req    api.ListColorsReq
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of a colour collection",
		Long: `List one page of a colour collection.

Examples:
  # First page of Behr interior colours from the good line
  paintstudio colors list --brand behr --type interior --line good

  # Blues only, ten at a time, as YAML
  paintstudio colors list --brand ppg --type exterior --line best --family blues --limit 10 -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText && output != outputYAML {
				return fmt.Errorf("unsupported output format: %s", output)
			}
			var rsp api.ListColorsRsp
			if err := NewHTTPClient(GetConfig()).Fetch(&req, &rsp); err != nil {
				return err
			}
			switch {
			case jsonOutput:
				printResult(rsp)
			case output == outputYAML:
				s, err := toYAML(rsp)
				if err != nil {
					return err
				}
				fmt.Print(s)
			default:
				printColors(os.Stdout, rsp)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Brand, "brand", "", "Brand, e.g. behr")
	cmd.Flags().StringVar(&req.Type, "type", "", "Paint type, e.g. interior")
	cmd.Flags().StringVar(&req.Line, "line", "", "Quality line, e.g. good")
	cmd.Flags().IntVar(&req.Page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Colours per page")
	cmd.Flags().StringVar(&req.Family, "family", "", "Only colours of this family")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or yaml")
	cmd.MarkFlagRequired("brand")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("line")
	return cmd
}

// printColors prints a page of colours as a table followed by the page summary.
func printColors(w io.Writer, rsp api.ListColorsRsp) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHEX\tCODE\tFAMILY")
	for _, c := range rsp.Colors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Hex, c.Code, c.Family)
	}
	tw.Flush()

	p := rsp.Pagination
	fmt.Fprintf(w, "\nPage %d of %d (%d colours, %d per page)", p.Page, p.TotalPages, p.Total, p.Limit)
	if p.HasMore {
		fmt.Fprint(w, ", more available")
	}
	fmt.Fprintln(w)
}

func newColorsOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Show the brands, paint types, lines and families the server accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rsp api.ColorOptionsRsp
			if err := NewHTTPClient(GetConfig()).Fetch(&api.GetColorOptionsReq{}, &rsp); err != nil {
				return err
			}
			if jsonOutput {
				printResult(rsp)
				return nil
			}
			printOptions(os.Stdout, rsp)
			return nil
		},
	}
}

func printOptions(w io.Writer, rsp api.ColorOptionsRsp) {
	section := func(title string, opts []api.Option) {
		fmt.Fprintf(w, "%s:\n", title)
		for _, o := range opts {
			fmt.Fprintf(w, "  %-18s %s\n", o.Value, o.DisplayName)
		}
	}
	section("Brands", rsp.Brands)
	section("Types", rsp.Types)
	section("Lines", rsp.Lines)
	fmt.Fprintf(w, "Families: %s\n", strings.Join(rsp.Families, ", "))
	fmt.Fprintf(w, "Page size: %d (max %d)\n", rsp.DefaultLimit, rsp.MaxLimit)
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/exteriorpros/paintstudio/pkg/api"
)

// StatusResponse combines the server version with its colour cache statistics.
type StatusResponse struct {
	Server  string            `json:"server"`
	Version api.GetVersionRsp `json:"version"`
	Cache   api.CacheStatsRsp `json:"cache"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get server version and colour cache statistics",
		Long: `Get server version and colour cache statistics.

Examples:
  # Get server status
  paintstudio status

  # Get server status in JSON format
  paintstudio status -j`,
		Annotations: map[string]string{"config": "required"},
		RunE:        getStatus,
	}
}

// getStatus handles retrieving server status information
func getStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	client := NewHTTPClient(cfg)

	status := StatusResponse{Server: cfg.GetServerURL()}
	if err := client.Fetch(&api.GetVersionReq{}, &status.Version); err != nil {
		return err
	}
	if err := client.Fetch(&api.GetCacheStatsReq{}, &status.Cache); err != nil {
		return err
	}

	if jsonOutput {
		printResult(status)
	} else {
		printStatusPretty(os.Stdout, status)
	}
	return nil
}

// printStatusPretty prints the status information in a human-readable format
func printStatusPretty(w io.Writer, status StatusResponse) {
	fmt.Fprintf(w, "Server: %s\n", status.Server)
	fmt.Fprintf(w, "Server Version: %s\n", status.Version.ServerVersion)
	fmt.Fprintf(w, "API Version: %s\n", status.Version.ApiVersion)

	c := status.Cache
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Colour Cache:")
	fmt.Fprintf(w, "  Collections: %d of %d\n", c.Size, c.Capacity)
	fmt.Fprintf(w, "  Hits: %d\n", c.Hits)
	fmt.Fprintf(w, "  Misses: %d\n", c.Misses)
	if total := c.Hits + c.Misses; total > 0 {
		fmt.Fprintf(w, "  Hit Ratio: %.1f%%\n", float64(c.Hits)*100/float64(total))
	}
	fmt.Fprintf(w, "  Loads: %d (%d failed)\n", c.Loads, c.LoadFailures)
	fmt.Fprintf(w, "  Evictions: %d\n", c.Evictions)
}

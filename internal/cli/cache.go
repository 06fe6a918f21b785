package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/invalidation"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "cache",
		Short:       "Manage the colour cache of running servers",
		Annotations: map[string]string{"config": "required"},
	}

	var (
		keyStr string
		all    bool
	)
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear one collection or every collection from the colour cache",
		Long: `Clear one collection or every collection from the colour cache of every
colour server listening on the configured redis channel.

Examples:
  # Reload one collection on its next request
  paintstudio cache clear --key behr:interior:good

  # Reload everything
  paintstudio cache clear --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := clearMessage(keyStr, all)
			if err != nil {
				return err
			}
			n, err := publishClear(cmd.Context(), GetConfig(), m)
			if err != nil {
				return err
			}
			if jsonOutput {
				printResult(map[string]any{"message": m, "servers": n})
			} else {
				fmt.Printf("Clear request delivered to %d server(s)\n", n)
			}
			return nil
		},
	}
	clearCmd.Flags().StringVar(&keyStr, "key", "", "Collection key, brand:type:level")
	clearCmd.Flags().BoolVar(&all, "all", false, "Clear every collection")
	clearCmd.MarkFlagsMutuallyExclusive("key", "all")

	cmd.AddCommand(clearCmd)
	return cmd
}

func clearMessage(keyStr string, all bool) (invalidation.Message, error) {
	if all {
		return invalidation.ClearAll(), nil
	}
	if keyStr == "" {
		return invalidation.Message{}, errors.New("either --key or --all is required")
	}
	key, err := palette.ParseKey(keyStr)
	if err != nil {
		return invalidation.Message{}, err
	}
	if !key.Valid() {
		return invalidation.Message{}, fmt.Errorf("unknown brand, type or level: %s", key)
	}
	return invalidation.ClearKey(key), nil
}

// publishClear sends m on the configured channel and returns the number of
// servers that received it.
func publishClear(ctx context.Context, cfg *Config, m invalidation.Message) (int64, error) {
	if cfg.RedisURL == "" {
		return 0, errors.New("redis_url is not configured")
	}
	client, err := invalidation.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return 0, err
	}
	defer client.Close()
	return invalidation.NewPublisher(client, cfg.GetChannel()).Publish(ctx, m)
}

package main

import (
	"errors"
	"fmt"
	"sort"

	"freight-tracker/internal/core/cache"
	adapter "freight-tracker/internal/features/tracking/adapters"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("REDIS_URL is not set; the carrier cache is disabled")

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear cached carrier answers",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*cache.RedisAdapter, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.RedisURL == "" {
		return nil, errCacheDisabled
	}
	return cache.NewRedisAdapter(cfg.Cache.RedisURL)
}

func carrierPattern(name string) (string, error) {
	if name == "" {
		return adapter.CacheKeyPattern(""), nil
	}
	c := domain.ParseCarrier(name)
	if !c.IsKnown() {
		return "", fmt.Errorf("unknown carrier %q", name)
	}
	return adapter.CacheKeyPattern(c), nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var carrier string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached tracking lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := carrierPattern(carrier)
			if err != nil {
				return err
			}
			c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			keys, err := c.Keys(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "Cached lookups: none")
				return nil
			}
			sort.Strings(keys)
			fmt.Fprintf(out, "Cached lookups: %d\n", len(keys))
			for _, k := range keys {
				fmt.Fprintf(out, "  - %s\n", k)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&carrier, "carrier", "", "Only this carrier (code or name)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var carrier string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached tracking lookups so the next run asks the carriers again",
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := carrierPattern(carrier)
			if err != nil {
				return err
			}
			c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			keys, err := c.Keys(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := c.Delete(cmd.Context(), k); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached lookups\n", len(keys))
			return nil
		},
	}

	cmd.Flags().StringVar(&carrier, "carrier", "", "Only this carrier (code or name)")
	return cmd
}

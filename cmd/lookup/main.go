package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Tealium/tealium-mcp-demo/internal/config"
	"github.com/Tealium/tealium-mcp-demo/internal/domain"
	"github.com/Tealium/tealium-mcp-demo/internal/infra/cache"
	"github.com/Tealium/tealium-mcp-demo/internal/infra/moments"
	"github.com/Tealium/tealium-mcp-demo/internal/logger"
	"github.com/Tealium/tealium-mcp-demo/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		visitorID   bool
		attributeID string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Resolve a Tealium visitor profile by email, phone, visitor ID or attribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, closeStore, err := cache.Open(ctx, cfg.CacheStore())
			if err != nil {
				return err
			}
			defer closeStore()

			resolution := cfg.Resolution()
			if noCache {
				resolution.UseCache = false
			}

			req := domain.FreeFormRequest(args[0])
			switch {
			case visitorID:
				req = domain.VisitorIDRequest(args[0])
			case attributeID != "":
				req = domain.AttributeRequest(attributeID, args[0])
			}

			uc := usecase.NewVisitorResolver(moments.NewClient(nil), store, usecase.WithLogger(lg))
			res, err := uc.Resolve(ctx, req, resolution)
			if err != nil {
				return fmt.Errorf("lookup failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&visitorID, "visitor-id", false, "treat the identifier as a Tealium visitor ID")
	cmd.Flags().StringVar(&attributeID, "attribute-id", "", "look the identifier up as the value of this attribute")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the visitor cache")
	cmd.MarkFlagsMutuallyExclusive("visitor-id", "attribute-id")
	return cmd
}

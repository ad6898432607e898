package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lorekeeper/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("closing world store", zap.Error(err))
		}
	}()

	stopWatch, err := a.watch(ctx)
	if err != nil {
		return err
	}
	defer stopWatch()

	s := a.session()
	defer s.Close()

	server := mcp.NewServer(s, a.worlds, version)
	logger.Info("serving MCP over stdio", zap.String("project", a.cfg.Project))
	return server.Run(ctx, &sdk.StdioTransport{})
}

package cli

import (
	"context"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diligence/internal/adapters/driving/mcp"
	"github.com/custodia-labs/diligence/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve diligence sessions to AI assistants",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Model Context Protocol server",
	Long: `Serve diligence over the Model Context Protocol. Assistants can open
sessions, upload documents, ask cited questions and request the memo.

Without --port the server speaks JSON-RPC on stdin and stdout, which is
what desktop assistants launch:

  {"mcpServers": {"diligence": {"command": "diligence", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP instead, plus Prometheus metrics
at /metrics. Use this for MCP Inspector or remote clients.`,
	Example: `  diligence mcp serve
  diligence mcp serve --port 8080 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().String("host", "localhost", "interface to bind with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if sessionManager == nil {
		return errSessionsNotConfigured
	}
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	server, err := mcp.NewServer(&mcp.Ports{Sessions: sessionManager, Metrics: metricsHandler})
	if err != nil {
		return err
	}
	// Sessions opened by clients end with the server.
	defer func() {
		if err := sessionManager.CloseAll(context.WithoutCancel(cmd.Context())); err != nil {
			logger.Warn("closing sessions: %v", err)
		}
	}()

	if port <= 0 {
		return server.Run(cmd.Context())
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

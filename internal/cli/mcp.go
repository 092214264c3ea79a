package cli

import (
	"github.com/spf13/cobra"

	"rentalbot/internal/mcp"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant as MCP tools over stdio",
		Run:   runMCP,
	}

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		exitErr("initialize assistant", err)
	}
	defer rt.Close()

	if err := mcp.NewServer(rt.Sessions, rt.Index, rt.Catalog, Version).Serve(); err != nil {
		exitErr("mcp server", err)
	}
}

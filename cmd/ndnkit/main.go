package main

import (
	"github.com/ndn-go/ndnkit/tools"
	"github.com/ndn-go/ndnkit/utils"
	"github.com/spf13/cobra"
)

var cmdRoot = &cobra.Command{
	Use:     "ndnkit",
	Short:   "NDN client toolkit",
	Version: utils.Version,
}

func init() {
	cobra.EnableCommandSorting = false
	cmdRoot.Root().CompletionOptions.HiddenDefaultCmd = true
	cmdRoot.PersistentFlags().BoolP("help", "h", false, "Print usage")
	cmdRoot.PersistentFlags().Lookup("help").Hidden = true

	cmdRoot.AddGroup(&cobra.Group{ID: "tools", Title: "Debug Tools"})
	cmdRoot.AddCommand(tools.CmdPingClient())
	cmdRoot.AddCommand(tools.CmdPingServer())
}

func main() {
	cmdRoot.Execute()
}

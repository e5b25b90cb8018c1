package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model table",
	Long:  `Show the effective model table: the account and remote file used for each device model. Passwords are not shown.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadModels(modelsPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s %-9s %-6s %-16s %s\n", "MODEL", "PROTOCOL", "PORT", "USER", "REMOTE-PATH")
		fmt.Fprintln(out, strings.Repeat("-", 72))
		for _, name := range table.Names() {
			e, _ := table.Lookup(name)
			port := "-"
			if e.Port != 0 {
				port = fmt.Sprint(e.Port)
			}
			fmt.Fprintf(out, "%-16s %-9s %-6s %-16s %s\n", e.Model, e.Protocol, port, e.User, e.RemotePath)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsPath, "models", "",
		"YAML model table (default: $FLEETFTP_MODELS or the built-in table)")
}

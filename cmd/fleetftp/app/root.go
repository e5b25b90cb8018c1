package app

import (
	"fmt"
	"io"

	"github.com/monshunter/fleetftp/pkg/envar"
	"github.com/monshunter/fleetftp/pkg/log"
	"github.com/monshunter/fleetftp/pkg/models"
	"github.com/monshunter/fleetftp/pkg/prompt"
	"github.com/monshunter/fleetftp/pkg/transfer"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
)

// Replaced in tests
var (
	newFetcher = func() transfer.Fetcher {
		return transfer.NewMux(ftpTrace())
	}
	newResolver = func() prompt.Resolver {
		return prompt.NewTerminal()
	}
)

var rootCmd = &cobra.Command{
	Use:   "fleetftp",
	Short: "fleetftp - download a fixed file from every device in an equipment list",
	Long: `fleetftp reads an equipment master list (equipment id, address, model),
looks up the account and remote file configured for each model, and downloads
that file from every device over FTP, one device at a time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetVerbose(true)
		}
		if quiet {
			log.SetQuiet(true)
		}
		if noColor {
			log.EnableColor(false)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output, including the FTP protocol trace")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Enable quiet mode (failures and the summary only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run adds all child commands to the root command and sets flags, this is the entry point called by main.go
func Run() error {
	return rootCmd.Execute()
}

// ftpTrace returns the writer for the FTP client's protocol trace, or nil
// when not in verbose mode
func ftpTrace() io.Writer {
	if !log.IsVerbose() {
		return nil
	}
	return log.Writer(log.DEBUG, "ftp: ")
}

// loadModels returns the model table from path, FLEETFTP_MODELS, or the
// built-in default, in that order
func loadModels(path string) (*models.Table, error) {
	if path == "" {
		path = envar.ModelsFile()
	}
	if path == "" {
		return models.Default()
	}
	table, err := models.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model table: %w", err)
	}
	log.Debugf("Using model table %s", path)
	return table, nil
}

package app

import (
	"fmt"

	"github.com/monshunter/fleetftp/pkg/batch"
	"github.com/monshunter/fleetftp/pkg/log"
	"github.com/monshunter/fleetftp/pkg/master"
	"github.com/monshunter/fleetftp/pkg/transfer"
	"github.com/spf13/cobra"
)

var (
	masterPath string
	outputDir  string
	modelsPath string
	batchPort  int
	batchNoPsv bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Download the model's file from every device in the master data",
	Long: `Download one file from every device listed in the master data.

The master data is a .csv, .xlsx or .xlsm file with the columns equipment_id
(or eqp_id), address (or IP) and model. Legacy .xls workbooks are not read;
save them as .xlsx first. The account and remote file of each device come from
the model table. Each file is saved as <output-dir>/<equipment_id>/<file name>.

Rows with a blank field, an equipment_id that is not a plain directory name
(such as "../x"), an unknown model or a failed transfer are counted as failed
and the run moves on to the next row.

Examples:
  # Use master_equipment.csv and save under ./downloads
  fleetftp batch

  # Spreadsheet master data, custom output directory
  fleetftp batch -m equipment.xlsx -o /srv/collected

  # Servers that require active mode
  fleetftp batch --no-passive

  # Custom model table
  fleetftp batch --models models.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadModels(modelsPath)
		if err != nil {
			return err
		}

		runner := &batch.Runner{
			Models:    table,
			Fetcher:   newFetcher(),
			OutputDir: outputDir,
			Port:      batchPort,
			Passive:   !batchNoPsv,
		}
		if err := runner.PrepareOutput(); err != nil {
			return err
		}

		devices, err := master.Load(masterPath)
		if err != nil {
			return fmt.Errorf("failed to load master data: %w", err)
		}
		log.Infof("Loaded %d devices from %s, models: %v", len(devices), masterPath, table.Names())

		handler := NewGracefulShutdownHandler()
		defer handler.Close()

		summary, runErr := runner.Run(handler.Context(), devices)
		log.Summary("\n%s", summary)
		if runErr != nil {
			return fmt.Errorf("run stopped after %d of %d devices: %w", len(summary.Outcomes), len(devices), runErr)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&masterPath, "master", "m", master.DefaultPath,
		"Master data file (.csv or .xlsx) with equipment_id, address and model columns")
	batchCmd.Flags().StringVarP(&outputDir, "output-dir", "o", batch.DefaultOutputDir,
		"Root directory for downloads, one sub-directory per equipment id")
	batchCmd.Flags().StringVar(&modelsPath, "models", "",
		"YAML model table (default: $FLEETFTP_MODELS or the built-in table)")
	batchCmd.Flags().IntVar(&batchPort, "port", transfer.DefaultFTPPort, "FTP port")
	batchCmd.Flags().BoolVar(&batchNoPsv, "no-passive", false,
		"Disable passive mode (use when the servers require active mode)")
}

package app

import (
	"path"

	"github.com/monshunter/fleetftp/pkg/envar"
	"github.com/monshunter/fleetftp/pkg/log"
	"github.com/monshunter/fleetftp/pkg/models"
	"github.com/monshunter/fleetftp/pkg/transfer"
	"github.com/monshunter/fleetftp/pkg/utils"
	"github.com/spf13/cobra"
)

// Prompt labels of the get command
const (
	labelHost     = "FTP host: "
	labelUsername = "FTP username: "
	labelPassword = "FTP password: "
)

var (
	getHost     string
	getUsername string
	getPassword string
	getPort     int
	getNoPsv    bool
)

var getCmd = &cobra.Command{
	Use:   "get REMOTE_PATH [LOCAL_PATH]",
	Short: "Download a single file from one FTP server",
	Long: `Download a single file from one FTP server.

Host, username and password not given as flags are asked for interactively;
the password is read without echo. $FLEETFTP_PASSWORD pre-fills the password.
LOCAL_PATH defaults to the remote file name in the current directory.

Examples:
  # Prompt for everything
  fleetftp get /log/data1.txt

  # Fully specified, saved under a new directory
  fleetftp get /log/data1.txt out/E1/data1.txt --host 10.0.0.1 -u user_model1 -p pwd_model1

  # Non-standard port, active mode
  fleetftp get /data/report.csv --host 10.0.0.2 --port 2121 --no-passive`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remotePath := args[0]
		localPath := path.Base(remotePath)
		if len(args) == 2 {
			localPath = args[1]
		}

		resolver := newResolver()
		host, err := resolver.Resolve(getHost, labelHost, false)
		if err != nil {
			return err
		}
		username, err := resolver.Resolve(getUsername, labelUsername, false)
		if err != nil {
			return err
		}
		password := getPassword
		if password == "" {
			password = envar.Password()
		}
		password, err = resolver.Resolve(password, labelPassword, true)
		if err != nil {
			return err
		}

		// an explicit --port is used as given, 21 included
		req := transfer.Request{
			Protocol:   models.ProtocolFTP,
			Host:       host,
			Port:       getPort,
			User:       username,
			Password:   password,
			RemotePath: remotePath,
			LocalPath:  localPath,
			Passive:    !getNoPsv,
		}
		log.Debugf("fetching %s from %s:%d as %s", remotePath, host, getPort, username)
		n, err := newFetcher().Fetch(cmd.Context(), req)
		if err != nil {
			return err
		}

		log.Infof("Downloaded %s -> %s (%s)", remotePath, localPath, utils.FormatSize(n))
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getHost, "host", "", "FTP server host or IP (prompted when empty)")
	getCmd.Flags().StringVarP(&getUsername, "username", "u", "", "FTP username (prompted when empty)")
	getCmd.Flags().StringVarP(&getPassword, "password", "p", "", "FTP password (prompted when empty)")
	getCmd.Flags().IntVar(&getPort, "port", transfer.DefaultFTPPort, "FTP port")
	getCmd.Flags().BoolVar(&getNoPsv, "no-passive", false,
		"Disable passive mode (use when the server requires active mode)")
}

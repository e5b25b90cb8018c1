package transfer

import (
	"context"
	"io"
	"strconv"

	"github.com/monshunter/fleetftp/pkg/ssh"
)

// SFTP fetches files over SSH for models configured with protocol sftp
type SFTP struct{}

func (s *SFTP) Fetch(ctx context.Context, req Request) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var privKey string
	if req.KeyFile != "" {
		key, err := ssh.ReadKeyFile(req.KeyFile)
		if err != nil {
			return 0, &LocalError{Path: req.KeyFile, Err: err}
		}
		privKey = key
	}

	client := ssh.NewClient(req.Host, strconv.Itoa(req.port(DefaultSFTPPort)), req.User, req.Password, privKey)
	client.Timeout = ConnectTimeout
	if err := client.Connect(); err != nil {
		return 0, err
	}
	defer client.Close()

	src, err := client.OpenFile(req.RemotePath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := createDestination(req.LocalPath)
	if err != nil {
		return 0, err
	}
	cw := newCountingWriter(dst)
	_, err = io.Copy(cw, src)
	if err := finishDestination(dst, cw.result(err)); err != nil {
		return 0, err
	}
	return cw.n, nil
}

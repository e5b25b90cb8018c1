package transfer

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"

	"github.com/secsy/goftp"
)

// FTP fetches files with a single-connection FTP client
type FTP struct {
	// Trace receives the client's protocol trace when set
	Trace io.Writer
}

func (f *FTP) config(req Request) goftp.Config {
	cfg := goftp.Config{
		User:               req.User,
		Password:           req.Password,
		ConnectionsPerHost: 1,
		Timeout:            ConnectTimeout,
		ActiveTransfers:    !req.Passive,
	}
	if f.Trace != nil {
		cfg.Logger = &maskingWriter{w: f.Trace, secret: req.Password}
	}
	return cfg
}

// maskingWriter hides the password in the protocol trace
type maskingWriter struct {
	w      io.Writer
	secret string
}

func (m *maskingWriter) Write(p []byte) (int, error) {
	if m.secret == "" || !bytes.Contains(p, []byte(m.secret)) {
		return m.w.Write(p)
	}
	if _, err := m.w.Write(bytes.ReplaceAll(p, []byte(m.secret), []byte("******"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Fetch logs in, switches to the requested data connection mode and
// retrieves RemotePath into LocalPath with a single RETR. There is no SIZE
// check and no restart: what the server sends before 226 is the file.
// Errors from the server or the network are returned as the client
// reported them.
func (f *FTP) Fetch(ctx context.Context, req Request) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	addr := net.JoinHostPort(req.Host, strconv.Itoa(req.port(DefaultFTPPort)))
	client, err := goftp.DialConfig(f.config(req), addr)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	// dials and logs in before any local file is touched
	conn, err := client.OpenRawConn()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if err := expectReply(conn.SendCommand("TYPE I")); err != nil {
		return 0, err
	}
	dataConn, err := conn.PrepareDataConn()
	if err != nil {
		return 0, err
	}
	if err := expectReply(conn.SendCommand("RETR %s", req.RemotePath)); err != nil {
		if req.Passive {
			// the passive data connection is already open
			if dc, derr := dataConn(); derr == nil {
				dc.Close()
			}
		}
		return 0, err
	}

	dc, err := dataConn()
	if err != nil {
		return 0, err
	}
	defer dc.Close()

	dst, err := createDestination(req.LocalPath)
	if err != nil {
		return 0, err
	}
	cw := newCountingWriter(dst)
	_, err = io.Copy(cw, dc)
	err = cw.result(err)
	dc.Close()
	if err == nil {
		err = expectReply(conn.ReadResponse())
	}
	if err := finishDestination(dst, err); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// expectReply turns a negative FTP reply into a ReplyError. Preliminary
// (1xx) and completion (2xx) replies are accepted.
func expectReply(code int, msg string, err error) error {
	if err != nil {
		return err
	}
	if code >= 300 {
		return &ReplyError{Code: code, Msg: msg}
	}
	return nil
}

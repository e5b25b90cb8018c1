package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/monshunter/fleetftp/pkg/log"
	"github.com/monshunter/fleetftp/pkg/models"
	"github.com/monshunter/fleetftp/pkg/utils"
)

// ConnectTimeout is the fixed connect timeout of every transfer
const ConnectTimeout = 30 * time.Second

// Default ports per protocol
const (
	DefaultFTPPort  = 21
	DefaultSFTPPort = 22
)

// Request describes a single remote file to fetch
type Request struct {
	// Protocol is models.ProtocolFTP when empty
	Protocol   string
	Host       string
	Port       int
	User       string
	Password   string
	KeyFile    string
	RemotePath string
	LocalPath  string
	// Passive selects passive data connections (ftp only)
	Passive bool
}

func (r Request) protocol() string {
	if r.Protocol == "" {
		return models.ProtocolFTP
	}
	return r.Protocol
}

func (r Request) port(def int) int {
	if r.Port == 0 {
		return def
	}
	return r.Port
}

// Fetcher downloads one remote file per call. It returns the number of
// bytes written to LocalPath.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (int64, error)
}

// Mux dispatches requests to a Fetcher by protocol
type Mux map[string]Fetcher

// NewMux returns a Mux serving ftp and sftp
func NewMux(ftpTrace io.Writer) Mux {
	return Mux{
		models.ProtocolFTP:  &FTP{Trace: ftpTrace},
		models.ProtocolSFTP: &SFTP{},
	}
}

func (m Mux) Fetch(ctx context.Context, req Request) (int64, error) {
	f, ok := m[req.protocol()]
	if !ok {
		return 0, fmt.Errorf("no fetcher for protocol %q", req.protocol())
	}
	return f.Fetch(ctx, req)
}

// createDestination creates the parent directories of path and opens path
// for writing, truncating any previous content.
func createDestination(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &LocalError{Path: dir, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &LocalError{Path: path, Err: err}
	}
	return f, nil
}

// finishDestination closes dst and removes it when the transfer failed
func finishDestination(dst *os.File, transferErr error) error {
	closeErr := dst.Close()
	if transferErr != nil {
		os.Remove(dst.Name())
		return transferErr
	}
	if closeErr != nil {
		return &LocalError{Path: dst.Name(), Err: closeErr}
	}
	return nil
}

// progressInterval is how often a running download reports its size
const progressInterval = 10 * time.Second

// countingWriter counts the bytes that reach the destination, logs progress
// of long downloads and keeps the first local write error, which clients
// may not wrap.
type countingWriter struct {
	f       *os.File
	n       int64
	err     error
	lastLog time.Time
}

func newCountingWriter(f *os.File) *countingWriter {
	return &countingWriter{f: f, lastLog: time.Now()}
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	c.n += int64(n)
	if err != nil && c.err == nil {
		c.err = &LocalError{Path: c.f.Name(), Err: err}
	}
	if now := time.Now(); now.Sub(c.lastLog) >= progressInterval {
		log.Infof("Download progress for %s: %s", c.f.Name(), utils.FormatSize(c.n))
		c.lastLog = now
	}
	return n, err
}

// result picks the error to report for a finished copy
func (c *countingWriter) result(err error) error {
	if c.err != nil {
		return c.err
	}
	return err
}

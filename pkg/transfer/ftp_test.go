package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ftpServer is a loopback FTP server with one account and read-only files.
// It advertises SIZE and REST and answers SIZE with a fixed value that does
// not have to match the file.
type ftpServer struct {
	ln    net.Listener
	pass  string
	files map[string]string
	size  string

	mu   sync.Mutex
	cmds []string
}

func newFTPServer(t *testing.T, files map[string]string) *ftpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &ftpServer{ln: ln, pass: "secret", files: files, size: "1"}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *ftpServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// commands returns the verbs received so far, in order
func (s *ftpServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cmds...)
}

func (s *ftpServer) request(password, remote, local string, passive bool) Request {
	return Request{
		Host:       "127.0.0.1",
		Port:       s.port(),
		User:       "user",
		Password:   password,
		RemotePath: remote,
		LocalPath:  local,
		Passive:    passive,
	}
}

func (s *ftpServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *ftpServer) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	r := bufio.NewReader(conn)
	reply := func(format string, args ...any) {
		fmt.Fprintf(conn, format+"\r\n", args...)
	}

	var (
		pasv   *net.TCPListener
		active string
	)
	defer func() {
		if pasv != nil {
			pasv.Close()
		}
	}()

	reply("220 fake ftp ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
		verb = strings.ToUpper(verb)
		s.mu.Lock()
		s.cmds = append(s.cmds, verb)
		s.mu.Unlock()

		switch verb {
		case "USER":
			reply("331 Password required")
		case "PASS":
			if arg != s.pass {
				reply("530 Login incorrect.")
				continue
			}
			reply("230 Logged in")
		case "FEAT":
			reply("211-Features:\r\n SIZE\r\n REST STREAM\r\n EPSV\r\n211 End")
		case "PWD":
			reply(`257 "/" is the current directory`)
		case "TYPE":
			reply("200 Type set to %s", arg)
		case "SIZE":
			reply("213 %s", s.size)
		case "EPSV":
			ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
			if err != nil {
				reply("425 Can't open data connection.")
				continue
			}
			pasv = ln
			reply("229 Entering Extended Passive Mode (|||%d|)", ln.Addr().(*net.TCPAddr).Port)
		case "PORT":
			addr, err := parsePortArg(arg)
			if err != nil {
				reply("501 %v", err)
				continue
			}
			active = addr
			reply("200 PORT command successful")
		case "RETR":
			content, ok := s.files[arg]
			if !ok {
				reply("550 %s: No such file or directory", arg)
				continue
			}
			reply("150 Opening BINARY mode data connection for %s", arg)
			dc, err := openData(pasv, active)
			if err != nil {
				reply("425 Can't open data connection.")
				continue
			}
			io.WriteString(dc, content)
			dc.Close()
			reply("226 Transfer complete")
		case "QUIT":
			reply("221 Goodbye")
			return
		default:
			reply("502 %s not implemented", verb)
		}
	}
}

func openData(pasv *net.TCPListener, active string) (net.Conn, error) {
	switch {
	case pasv != nil:
		pasv.SetDeadline(time.Now().Add(5 * time.Second))
		return pasv.Accept()
	case active != "":
		return net.DialTimeout("tcp", active, 5*time.Second)
	}
	return nil, errors.New("no data connection requested")
}

// parsePortArg decodes "h1,h2,h3,h4,p1,p2"
func parsePortArg(arg string) (string, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 6 {
		return "", fmt.Errorf("bad PORT argument %q", arg)
	}
	hi, err := strconv.Atoi(parts[4])
	if err != nil {
		return "", err
	}
	lo, err := strconv.Atoi(parts[5])
	if err != nil {
		return "", err
	}
	host := strings.Join(parts[:4], ".")
	return net.JoinHostPort(host, strconv.Itoa(hi<<8|lo)), nil
}

func TestFTPFetchModes(t *testing.T) {
	tests := []struct {
		name     string
		passive  bool
		dataVerb string
	}{
		{"passive", true, "EPSV"},
		{"active", false, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFTPServer(t, map[string]string{"/log/data1.txt": "line 1\nline 2\n"})
			local := filepath.Join(t.TempDir(), "out", "E1", "data1.txt")

			n, err := (&FTP{}).Fetch(context.Background(), srv.request("secret", "/log/data1.txt", local, tt.passive))
			require.NoError(t, err)
			assert.Equal(t, int64(14), n)

			data, err := os.ReadFile(local)
			require.NoError(t, err)
			assert.Equal(t, "line 1\nline 2\n", string(data))
			assert.Contains(t, srv.commands(), tt.dataVerb)
		})
	}
}

func TestFTPFetchIgnoresAdvertisedSize(t *testing.T) {
	// the log grew between SIZE and RETR; whatever RETR delivers is the file
	srv := newFTPServer(t, map[string]string{"/log/data1.txt": "hello, growing!"})
	srv.size = "10"
	local := filepath.Join(t.TempDir(), "data1.txt")

	n, err := (&FTP{}).Fetch(context.Background(), srv.request("secret", "/log/data1.txt", local, true))
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "hello, growing!", string(data))

	cmds := srv.commands()
	assert.NotContains(t, cmds, "SIZE")
	assert.NotContains(t, cmds, "REST")
	assert.Equal(t, 1, strings.Count(strings.Join(cmds, " "), "RETR"), "exactly one attempt")
}

func TestFTPFetchLoginRejected(t *testing.T) {
	srv := newFTPServer(t, map[string]string{"/log/data1.txt": "x"})
	local := filepath.Join(t.TempDir(), "out", "E1", "data1.txt")

	_, err := (&FTP{}).Fetch(context.Background(), srv.request("wrong", "/log/data1.txt", local, true))
	require.Error(t, err)
	assert.Equal(t, KindAuth, Classify(err))
	assert.Contains(t, err.Error(), "530")

	_, statErr := os.Stat(filepath.Dir(local))
	assert.True(t, os.IsNotExist(statErr), "nothing is created locally when login fails")
	assert.NotContains(t, srv.commands(), "RETR")
}

func TestFTPFetchMissingRemoteFile(t *testing.T) {
	for _, passive := range []bool{true, false} {
		t.Run(fmt.Sprintf("passive=%v", passive), func(t *testing.T) {
			srv := newFTPServer(t, map[string]string{})
			local := filepath.Join(t.TempDir(), "out", "E1", "data1.txt")

			_, err := (&FTP{}).Fetch(context.Background(), srv.request("secret", "/log/data1.txt", local, passive))
			require.Error(t, err)
			assert.Equal(t, KindRemoteMissing, Classify(err))
			assert.Contains(t, err.Error(), "No such file or directory")

			_, statErr := os.Stat(local)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestFTPFetchOverwritesLocalFile(t *testing.T) {
	srv := newFTPServer(t, map[string]string{"/data/report.csv": "a,b\n"})
	local := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(local, []byte("stale content from an earlier run"), 0644))

	_, err := (&FTP{}).Fetch(context.Background(), srv.request("secret", "/data/report.csv", local, true))
	require.NoError(t, err)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

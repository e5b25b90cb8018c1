package ssh

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds the TCP connect and SSH handshake
const DefaultTimeout = 30 * time.Second

// Client wraps one SSH connection used for SFTP downloads
type Client struct {
	Host     string
	Port     string
	User     string
	Password string
	PrivKey  string
	Timeout  time.Duration
	client   *ssh.Client
}

// NewClient creates a new SSH client. Nothing is dialed until Connect.
func NewClient(host, port, user, password, privKey string) *Client {
	return &Client{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		PrivKey:  privKey,
		Timeout:  DefaultTimeout,
	}
}

// ReadKeyFile loads a private key for use as PrivKey
func ReadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH private key file: %w", err)
	}
	return string(data), nil
}

// Connect dials and authenticates. There is exactly one attempt.
func (c *Client) Connect() error {
	var auth []ssh.AuthMethod

	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}

	if c.PrivKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(c.PrivKey))
		if err != nil {
			return fmt.Errorf("failed to parse SSH private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.Timeout,
	}

	addr := net.JoinHostPort(c.Host, c.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return fmt.Errorf("ssh connection to %s failed: %w", addr, err)
	}
	c.client = client
	return nil
}

// Close closes the SSH connection
func (c *Client) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// OpenFile opens remotePath over SFTP. Closing the returned reader also
// ends the SFTP session; the SSH connection stays up until Close.
func (c *Client) OpenFile(remotePath string) (io.ReadCloser, error) {
	if c.client == nil {
		return nil, fmt.Errorf("ssh client for %s is not connected", c.Host)
	}

	session, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to start SFTP session: %w", err)
	}

	f, err := session.Open(remotePath)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open remote file %s: %w", remotePath, err)
	}
	return &sessionFile{File: f, session: session}, nil
}

type sessionFile struct {
	*sftp.File
	session *sftp.Client
}

func (f *sessionFile) Close() error {
	err := f.File.Close()
	if serr := f.session.Close(); err == nil {
		err = serr
	}
	return err
}

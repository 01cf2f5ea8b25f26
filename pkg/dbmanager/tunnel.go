package dbmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"querydesk-api/pkg/logger"
)

// Tunnel forwards a local loopback port to a target behind an SSH server.
// It lives for exactly one request and must be closed by its owner.
type Tunnel struct {
	client   *ssh.Client
	listener net.Listener
	target   string

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// OpenTunnel dials the SSH server described by config and starts forwarding
// a fresh loopback listener to targetHost:targetPort.
func OpenTunnel(ctx context.Context, config TunnelConfig, targetHost string, targetPort string, timeout time.Duration) (*Tunnel, error) {
	clientConfig, err := sshClientConfig(config, timeout)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh server %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	conn.SetDeadline(time.Time{})
	client := ssh.NewClient(sshConn, chans, reqs)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open local tunnel endpoint: %w", err)
	}

	t := &Tunnel{
		client:   client,
		listener: listener,
		target:   net.JoinHostPort(targetHost, targetPort),
	}
	t.wg.Add(1)
	go t.acceptLoop()

	logger.Debug("Tunnel -> OpenTunnel -> forwarding", logger.Ctx{
		"server": addr,
		"target": t.target,
		"local":  listener.Addr().String(),
	})
	return t, nil
}

func sshClientConfig(config TunnelConfig, timeout time.Duration) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if config.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(config.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if config.Password != "" {
		auth = append(auth, ssh.Password(config.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("ssh server has neither password nor private key")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if config.HostKey != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(config.HostKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse host key: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(key)
	} else {
		logger.Warn("Tunnel -> sshClientConfig -> host key checking disabled", logger.Ctx{"server_id": config.ServerID})
	}

	return &ssh.ClientConfig{
		User:            config.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			return
		}
		remote, err := t.client.Dial("tcp", t.target)
		if err != nil {
			logger.Error("Tunnel -> acceptLoop -> failed to reach target", logger.Ctx{"target": t.target, "err": err})
			local.Close()
			continue
		}
		t.wg.Add(1)
		go t.pipe(local, remote)
	}
}

func (t *Tunnel) pipe(local, remote net.Conn) {
	defer t.wg.Done()
	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
	local.Close()
	remote.Close()
	<-done
}

// LocalAddr returns the loopback host and port to connect the driver to.
func (t *Tunnel) LocalAddr() (string, string) {
	host, port, _ := net.SplitHostPort(t.listener.Addr().String())
	return host, port
}

// Close stops accepting, closes the SSH client and waits for open forwards
// to drain. It is safe to call more than once.
func (t *Tunnel) Close() error {
	t.closeOnce.Do(func() {
		lerr := t.listener.Close()
		cerr := t.client.Close()
		t.wg.Wait()
		t.closeErr = errors.Join(lerr, cerr)
	})
	return t.closeErr
}

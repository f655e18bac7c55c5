package transport

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/gliderlabs/ssh"
	sshconfig "github.com/kevinburke/ssh_config"
	sshagent "github.com/xanzy/ssh-agent"
	gossh "golang.org/x/crypto/ssh"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// remoteServeCommand is the argv run on the far end of an SSH connection;
// it must resolve to a binary that calls ServeSSH (or an equivalent
// wrapper around Server.Serve) against repoPath.
const remoteServeCommand = "sourcecontrol"

// sshEndpoint is a parsed "user@host:path" or "host:path" remote URL.
type sshEndpoint struct {
	User string
	Host string
	Path string
}

// parseSSHURL parses the scp-like syntax config.Remote.URL uses for
// non-local remotes.
func parseSSHURL(url string) (sshEndpoint, bool) {
	userHost, path, ok := strings.Cut(url, ":")
	if !ok {
		return sshEndpoint{}, false
	}
	user := ""
	host := userHost
	if at := strings.IndexByte(userHost, '@'); at >= 0 {
		user = userHost[:at]
		host = userHost[at+1:]
	}
	if host == "" || path == "" {
		return sshEndpoint{}, false
	}
	return sshEndpoint{User: user, Host: host, Path: path}, true
}

// IsLocalURL reports whether a configured remote URL names a local
// filesystem path rather than an SSH endpoint.
func IsLocalURL(url string) bool {
	_, ok := parseSSHURL(url)
	return !ok
}

// sshRWC adapts an SSH session's Stdin/Stdout pipes plus the session
// itself to io.ReadWriteCloser.
type sshRWC struct {
	io.Reader
	io.Writer
	session *gossh.Session
}

func (s sshRWC) Close() error {
	return s.session.Close()
}

// DialSSH opens an SSH connection to endpoint, resolving host/port/user
// and auth method from ~/.ssh/config and the running ssh-agent (falling
// back to the default identity files), then starts the remote serve
// command and returns a ProtocolRemote driving it.
func DialSSH(url string) (*ProtocolRemote, error) {
	ep, ok := parseSSHURL(url)
	if !ok {
		return nil, apperr.New(pkgName, apperr.CodeRemoteConfigError, "dial_ssh", url, nil)
	}

	host := sshconfig.Get(ep.Host, "HostName")
	if host == "" {
		host = ep.Host
	}
	port := sshconfig.Get(ep.Host, "Port")
	if port == "" {
		port = "22"
	}
	user := ep.User
	if user == "" {
		user = sshconfig.Get(ep.Host, "User")
	}
	if user == "" {
		user = os.Getenv("USER")
	}

	auth, closeAgent, err := sshAuthMethod()
	if err != nil {
		return nil, err
	}
	if closeAgent != nil {
		defer closeAgent.Close()
	}

	cfg := &gossh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
	}
	client, err := gossh.Dial("tcp", net.JoinHostPort(host, port), cfg)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeRemoteConnection, "dial_ssh", url, err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, apperr.New(pkgName, apperr.CodeRemoteConnection, "new_session", url, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, err
	}

	cmd := fmt.Sprintf("%s serve-protocol %s", remoteServeCommand, ep.Path)
	if err := session.Start(cmd); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeRemoteConnection, "start_remote_serve", cmd, err)
	}

	return NewProtocolRemote(sshRWC{Reader: stdout, Writer: stdin, session: session}), nil
}

// sshAuthMethod prefers a running ssh-agent, falling back to the default
// identity files under ~/.ssh.
func sshAuthMethod() ([]gossh.AuthMethod, io.Closer, error) {
	if agentClient, closer, err := sshagent.New(); err == nil {
		signers, serr := agentClient.Signers()
		if serr == nil && len(signers) > 0 {
			return []gossh.AuthMethod{gossh.PublicKeysCallback(agentClient.Signers)}, closer, nil
		}
		closer.Close()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, apperr.New(pkgName, apperr.CodeRemoteConfigError, "ssh_auth", "", err)
	}
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		data, err := os.ReadFile(keyPath)
		if err != nil {
			continue
		}
		signer, err := gossh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		return []gossh.AuthMethod{gossh.PublicKeys(signer)}, nil, nil
	}
	return nil, nil, apperr.New(pkgName, apperr.CodeRemoteConfigError, "ssh_auth", "", nil)
}

// ServeSSH listens on addr and serves the wire protocol over every incoming
// SSH connection, opening the repository named by the session's command
// argument (the path passed after "serve-protocol" by DialSSH) under root.
func ServeSSH(addr string, root string) error {
	handler := func(s ssh.Session) {
		args := s.Command()
		if len(args) != 2 || args[0] != "serve-protocol" {
			io.WriteString(s, "usage: serve-protocol <path>\n")
			s.Exit(1)
			return
		}
		repoPath := filepath.Join(root, filepath.Clean(args[1]))
		repo, err := sourcerepo.Open(scpath.RepositoryPath(repoPath))
		if err != nil {
			io.WriteString(s, err.Error()+"\n")
			s.Exit(1)
			return
		}
		if err := NewServer(repo).Serve(sessionRWC{s}); err != nil {
			s.Exit(1)
			return
		}
		s.Exit(0)
	}
	return ssh.ListenAndServe(addr, handler)
}

// sessionRWC adapts an ssh.Session (already an io.ReadWriter) to
// io.ReadWriteCloser; closing it ends the session's Serve loop without
// terminating the underlying SSH connection.
type sessionRWC struct {
	ssh.Session
}

func (sessionRWC) Close() error { return nil }

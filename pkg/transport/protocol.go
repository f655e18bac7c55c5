// Package transport implements push/pull object negotiation over a
// line-oriented ASCII protocol, with both a local (in-process, same-host)
// and an SSH transport sharing the identical wire contract against an
// io.ReadWriteCloser.
package transport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "transport"

// Kind names an object's type on the wire, matching the three object kinds
// the store persists.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// ObjectRef names one object by kind and hash, the unit negotiated by
// want-objects/have-objects.
type ObjectRef struct {
	Kind Kind
	Hash objects.ObjectHash
}

// conn wraps an io.ReadWriteCloser with line-buffered reads, matching the
// \n-terminated ASCII command framing.
type conn struct {
	rw     io.ReadWriteCloser
	reader *bufio.Reader
}

func newConn(rw io.ReadWriteCloser) *conn {
	return &conn{rw: rw, reader: bufio.NewReader(rw)}
}

func (c *conn) writeLine(format string, args ...interface{}) error {
	line := fmt.Sprintf(format, args...) + "\n"
	if _, err := io.WriteString(c.rw, line); err != nil {
		return apperr.New(pkgName, apperr.CodeTransport, "write_line", "", err)
	}
	return nil
}

func (c *conn) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeTransport, "read_line", "", err)
	}
	return strings.TrimRight(line, "\n"), nil
}

func (c *conn) writeBytes(data []byte) error {
	if _, err := c.rw.Write(data); err != nil {
		return apperr.New(pkgName, apperr.CodeTransport, "write_bytes", "", err)
	}
	return nil
}

func (c *conn) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeTransport, "read_bytes", "", err)
	}
	return buf, nil
}

func (c *conn) Close() error {
	return c.rw.Close()
}

func parseObjectRefLine(line string) (ObjectRef, error) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return ObjectRef{}, apperr.New(pkgName, apperr.CodeTransport, "parse_object_ref", line, nil)
	}
	hash, err := objects.NewObjectHashFromString(parts[1])
	if err != nil {
		return ObjectRef{}, apperr.New(pkgName, apperr.CodeTransport, "parse_object_ref", line, err)
	}
	return ObjectRef{Kind: Kind(parts[0]), Hash: hash}, nil
}

func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.New(pkgName, apperr.CodeTransport, "parse_size", s, err)
	}
	return n, nil
}

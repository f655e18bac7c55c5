package transport

import (
	"io"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// Server drives the wire protocol's far side against a single open
// repository. One Serve call handles one connection end to end: list-refs,
// get-ref, want-objects (push), have-objects (pull), object, update-ref,
// quit.
type Server struct {
	repo *sourcerepo.Repository
}

// NewServer returns a Server exposing repo over the wire protocol.
func NewServer(repo *sourcerepo.Repository) *Server {
	return &Server{repo: repo}
}

// Serve handles commands on rw until the client sends quit or the
// connection closes. rw is closed before Serve returns.
func (s *Server) Serve(rw io.ReadWriteCloser) error {
	c := newConn(rw)
	defer c.Close()

	for {
		line, err := c.readLine()
		if err != nil {
			return nil
		}
		fields := strings.SplitN(line, " ", 2)
		cmd := fields[0]
		var arg string
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "list-refs":
			if err := s.handleListRefs(c); err != nil {
				return err
			}
		case "get-ref":
			if err := s.handleGetRef(c, arg); err != nil {
				return err
			}
		case "want-objects":
			if err := s.handleWantObjects(c); err != nil {
				return err
			}
		case "have-objects":
			if err := s.handleHaveObjects(c, arg); err != nil {
				return err
			}
		case "object":
			if err := s.handleObject(c, arg); err != nil {
				return err
			}
		case "update-ref":
			if err := s.handleUpdateRef(c, arg); err != nil {
				return err
			}
		case "quit":
			return nil
		default:
			return apperr.New(pkgName, apperr.CodeTransport, "serve", line, nil)
		}
	}
}

func (s *Server) handleListRefs(c *conn) error {
	names, err := s.repo.Refs.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		hash, err := s.repo.Refs.Read(name)
		if err != nil {
			continue
		}
		if err := c.writeLine("%s %s", name, hash.String()); err != nil {
			return err
		}
	}
	return c.writeLine("end")
}

func (s *Server) handleGetRef(c *conn, name string) error {
	hash, err := s.repo.Refs.Read(name)
	if err != nil {
		return c.writeLine("missing")
	}
	return c.writeLine("%s", hash.String())
}

// handleWantObjects reads a client-declared set of objects it wants to
// push (terminated by "end"), and replies with the subset this server does
// not already have (also terminated by "end"). The client then streams
// those via repeated "object" commands.
func (s *Server) handleWantObjects(c *conn) error {
	local := NewLocalRemote(s.repo)
	var all []ObjectRef
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "end" {
			break
		}
		ref, err := parseObjectRefLine(line)
		if err != nil {
			return err
		}
		all = append(all, ref)
	}
	missing, err := local.Lacking(all)
	if err != nil {
		return err
	}
	for _, ref := range missing {
		if err := c.writeLine("%s %s", ref.Kind, ref.Hash.String()); err != nil {
			return err
		}
	}
	return c.writeLine("end")
}

// handleHaveObjects serves a pull: arg names the commit the client wants,
// the client then declares the objects it already has (terminated by
// "end"). The server computes that commit's full closure, tells the client
// which of those it lacks, then immediately streams each one via an
// "object" line and waits for "ok" before sending the next.
func (s *Server) handleHaveObjects(c *conn, arg string) error {
	startHash, err := objects.NewObjectHashFromString(arg)
	if err != nil {
		return err
	}

	var have []ObjectRef
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "end" {
			break
		}
		ref, err := parseObjectRefLine(line)
		if err != nil {
			return err
		}
		have = append(have, ref)
	}

	local := NewLocalRemote(s.repo)
	payloads, err := local.PullMissing(startHash, have)
	if err != nil {
		return err
	}
	for _, p := range payloads {
		if err := c.writeLine("%s %s", p.Ref.Kind, p.Ref.Hash.String()); err != nil {
			return err
		}
	}
	if err := c.writeLine("end"); err != nil {
		return err
	}

	for _, p := range payloads {
		if err := s.sendObject(c, p); err != nil {
			return err
		}
		reply, err := c.readLine()
		if err != nil {
			return err
		}
		if reply != "ok" {
			return apperr.New(pkgName, apperr.CodeTransport, "have_objects_ack", reply, nil)
		}
	}
	return c.writeLine("end")
}

func (s *Server) sendObject(c *conn, p objectPayload) error {
	if err := c.writeLine("object %s %s %d", p.Ref.Kind, p.Ref.Hash.String(), len(p.Payload)); err != nil {
		return err
	}
	return c.writeBytes(p.Payload)
}

func (s *Server) handleObject(c *conn, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 3 {
		return apperr.New(pkgName, apperr.CodeTransport, "handle_object", arg, nil)
	}
	hash, err := objects.NewObjectHashFromString(fields[1])
	if err != nil {
		return err
	}
	size, err := parseSize(fields[2])
	if err != nil {
		return err
	}
	payload, err := c.readBytes(size)
	if err != nil {
		return err
	}
	if err := decodeAndStoreObject(s.repo.Store, Kind(fields[0]), hash, payload); err != nil {
		return err
	}
	return c.writeLine("ok")
}

func (s *Server) handleUpdateRef(c *conn, arg string) error {
	fields := strings.SplitN(arg, " ", 2)
	if len(fields) != 2 {
		return apperr.New(pkgName, apperr.CodeTransport, "handle_update_ref", arg, nil)
	}
	hash, err := objects.NewObjectHashFromString(fields[1])
	if err != nil {
		return err
	}
	if err := s.repo.Refs.Update(fields[0], hash); err != nil {
		return c.writeLine("error %s", err.Error())
	}
	return c.writeLine("ok")
}

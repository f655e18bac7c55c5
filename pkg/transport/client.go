package transport

import (
	"io"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// ProtocolRemote implements RemoteRepo by driving the wire protocol over an
// io.ReadWriteCloser (an SSH session's combined stdin/stdout, or any other
// duplex stream a Server is listening on).
type ProtocolRemote struct {
	c *conn
}

// NewProtocolRemote wraps rw as a RemoteRepo, speaking the wire protocol to
// whatever Server is on the other end.
func NewProtocolRemote(rw io.ReadWriteCloser) *ProtocolRemote {
	return &ProtocolRemote{c: newConn(rw)}
}

func (p *ProtocolRemote) ListRefs() (map[string]objects.ObjectHash, error) {
	if err := p.c.writeLine("list-refs"); err != nil {
		return nil, err
	}
	out := make(map[string]objects.ObjectHash)
	for {
		line, err := p.c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "end" {
			return out, nil
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return nil, apperr.New(pkgName, apperr.CodeTransport, "list_refs", line, nil)
		}
		hash, err := objects.NewObjectHashFromString(fields[1])
		if err != nil {
			return nil, err
		}
		out[fields[0]] = hash
	}
}

func (p *ProtocolRemote) GetRef(name string) (objects.ObjectHash, bool, error) {
	if err := p.c.writeLine("get-ref %s", name); err != nil {
		return "", false, err
	}
	line, err := p.c.readLine()
	if err != nil {
		return "", false, err
	}
	if line == "missing" {
		return "", false, nil
	}
	hash, err := objects.NewObjectHashFromString(line)
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

func (p *ProtocolRemote) Lacking(all []ObjectRef) ([]ObjectRef, error) {
	if err := p.c.writeLine("want-objects"); err != nil {
		return nil, err
	}
	for _, ref := range all {
		if err := p.c.writeLine("%s %s", ref.Kind, ref.Hash.String()); err != nil {
			return nil, err
		}
	}
	if err := p.c.writeLine("end"); err != nil {
		return nil, err
	}

	var missing []ObjectRef
	for {
		line, err := p.c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "end" {
			return missing, nil
		}
		ref, err := parseObjectRefLine(line)
		if err != nil {
			return nil, err
		}
		missing = append(missing, ref)
	}
}

func (p *ProtocolRemote) Send(objs []objectPayload) error {
	for _, o := range objs {
		if err := p.c.writeLine("object %s %s %d", o.Ref.Kind, o.Ref.Hash.String(), len(o.Payload)); err != nil {
			return err
		}
		if err := p.c.writeBytes(o.Payload); err != nil {
			return err
		}
		reply, err := p.c.readLine()
		if err != nil {
			return err
		}
		if reply != "ok" {
			return apperr.New(pkgName, apperr.CodeTransport, "send_object_ack", reply, nil)
		}
	}
	return nil
}

func (p *ProtocolRemote) PullMissing(commit objects.ObjectHash, have []ObjectRef) ([]objectPayload, error) {
	if err := p.c.writeLine("have-objects %s", commit.String()); err != nil {
		return nil, err
	}
	for _, ref := range have {
		if err := p.c.writeLine("%s %s", ref.Kind, ref.Hash.String()); err != nil {
			return nil, err
		}
	}
	if err := p.c.writeLine("end"); err != nil {
		return nil, err
	}

	var lacking []ObjectRef
	for {
		line, err := p.c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "end" {
			break
		}
		ref, err := parseObjectRefLine(line)
		if err != nil {
			return nil, err
		}
		lacking = append(lacking, ref)
	}

	payloads := make([]objectPayload, 0, len(lacking))
	for range lacking {
		line, err := p.c.readLine()
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) != 4 || fields[0] != "object" {
			return nil, apperr.New(pkgName, apperr.CodeTransport, "pull_missing_object", line, nil)
		}
		hash, err := objects.NewObjectHashFromString(fields[2])
		if err != nil {
			return nil, err
		}
		size, err := parseSize(fields[3])
		if err != nil {
			return nil, err
		}
		payload, err := p.c.readBytes(size)
		if err != nil {
			return nil, err
		}
		if err := p.c.writeLine("ok"); err != nil {
			return nil, err
		}
		payloads = append(payloads, objectPayload{Ref: ObjectRef{Kind: Kind(fields[1]), Hash: hash}, Payload: payload})
	}
	if _, err := p.c.readLine(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func (p *ProtocolRemote) UpdateRef(name string, hash objects.ObjectHash) error {
	if err := p.c.writeLine("update-ref %s %s", name, hash.String()); err != nil {
		return err
	}
	reply, err := p.c.readLine()
	if err != nil {
		return err
	}
	if reply != "ok" {
		return apperr.New(pkgName, apperr.CodeTransport, "update_ref_ack", reply, nil)
	}
	return nil
}

func (p *ProtocolRemote) Close() error {
	_ = p.c.writeLine("quit")
	return p.c.Close()
}

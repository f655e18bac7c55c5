// Package namespace translates between inside (logical, namespace-internal)
// and outside (on-disk) uid/gid values, the way a Linux user namespace maps
// ids for an unprivileged container. Trees and blob headers always store
// inside ids; the filesystem adapter always talks in outside ids.
package namespace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const pkgName = "namespace"

// MapEntry is one contiguous range mapping: outside ids
// [OutsideStart, OutsideStart+Count) correspond to inside ids
// [InsideStart, InsideStart+Count).
type MapEntry struct {
	InsideStart  uint32 `toml:"inside" cbor:"inside_start"`
	OutsideStart uint32 `toml:"outside" cbor:"outside_start"`
	Count        uint32 `toml:"count" cbor:"count"`
}

// Map is an ordered list of MapEntry ranges for either uid or gid. A nil or
// empty Map is the identity mapping (inside == outside for every id).
type Map []MapEntry

// IdentityMap returns a Map covering the entire 32-bit id space as the
// identity mapping, used when a repository has no explicit namespace
// configuration (or when /proc/self/{uid,gid}_map is unreadable at init).
func IdentityMap() Map {
	return Map{{InsideStart: 0, OutsideStart: 0, Count: 0xFFFFFFFF}}
}

// IsIdentity reports whether m performs no translation at all (empty, or a
// single entry mapping the whole space onto itself).
func (m Map) IsIdentity() bool {
	if len(m) == 0 {
		return true
	}
	if len(m) == 1 && m[0].InsideStart == 0 && m[0].OutsideStart == 0 && m[0].Count == 0xFFFFFFFF {
		return true
	}
	return false
}

// OutsideToInside finds the entry covering the given outside id and
// returns the corresponding inside id. ok is false on miss (and when m is
// empty, which by convention is identity, so it always succeeds then).
func (m Map) OutsideToInside(outside uint32) (inside uint32, ok bool) {
	if len(m) == 0 {
		return outside, true
	}
	for _, e := range m {
		if outside >= e.OutsideStart && uint64(outside) < uint64(e.OutsideStart)+uint64(e.Count) {
			return e.InsideStart + (outside - e.OutsideStart), true
		}
	}
	return 0, false
}

// InsideToOutside is the symmetric lookup of OutsideToInside.
func (m Map) InsideToOutside(inside uint32) (outside uint32, ok bool) {
	if len(m) == 0 {
		return inside, true
	}
	for _, e := range m {
		if inside >= e.InsideStart && uint64(inside) < uint64(e.InsideStart)+uint64(e.Count) {
			return e.OutsideStart + (inside - e.InsideStart), true
		}
	}
	return 0, false
}

// Remap translates an id captured under oldMap's outside space into the
// outside space of newMap, by round-tripping through the inside id:
// inside_to_outside(outside_to_inside(oldOutside, oldMap), newMap).
func Remap(oldOutside uint32, oldMap, newMap Map) (newOutside uint32, ok bool) {
	inside, ok := oldMap.OutsideToInside(oldOutside)
	if !ok {
		return 0, false
	}
	return newMap.InsideToOutside(inside)
}

// Config pairs a uid map and a gid map, the per-repository namespace
// configuration loaded from config.toml's [namespace] section.
type Config struct {
	UidMap Map `toml:"uid_map,omitempty"`
	GidMap Map `toml:"gid_map,omitempty"`
}

// IdentityConfig returns a Config with identity mappings for both uid and
// gid (empty maps, which OutsideToInside/InsideToOutside treat as identity).
func IdentityConfig() Config {
	return Config{}
}

// ParseProcMap parses the three-column decimal format used by
// /proc/self/{uid,gid}_map: "<inside> <outside> <count>" per line, blank
// lines ignored.
func ParseProcMap(r io.Reader) (Map, error) {
	var m Map
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, apperr.New(pkgName, apperr.CodeNamespaceParseError, "parse_proc_map",
				"expected 3 fields", nil).WithContext("line", lineNo).WithContext("content", line)
		}
		inside, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, apperr.New(pkgName, apperr.CodeNamespaceParseError, "parse_proc_map",
				"invalid inside id", err).WithContext("line", lineNo)
		}
		outside, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, apperr.New(pkgName, apperr.CodeNamespaceParseError, "parse_proc_map",
				"invalid outside id", err).WithContext("line", lineNo)
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, apperr.New(pkgName, apperr.CodeNamespaceParseError, "parse_proc_map",
				"invalid count", err).WithContext("line", lineNo)
		}
		m = append(m, MapEntry{InsideStart: uint32(inside), OutsideStart: uint32(outside), Count: uint32(count)})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeNamespaceParseError, "parse_proc_map", "scan failed", err)
	}
	return m, nil
}

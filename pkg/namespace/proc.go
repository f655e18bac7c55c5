package namespace

import "os"

// ReadProcessMap reads and parses /proc/self/{uid,gid}_map for the current
// process. Used by repository init to seed a default namespace config. If
// the file cannot be read (e.g. not running on Linux, or a restricted
// environment), callers should fall back to IdentityMap.
func ReadProcessMap(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProcMap(f)
}

// CurrentConfig builds a Config from the current process's uid_map/gid_map,
// falling back to identity for either that can't be read.
func CurrentConfig() Config {
	cfg := Config{}
	if m, err := ReadProcessMap("/proc/self/uid_map"); err == nil {
		cfg.UidMap = m
	}
	if m, err := ReadProcessMap("/proc/self/gid_map"); err == nil {
		cfg.GidMap = m
	}
	return cfg
}

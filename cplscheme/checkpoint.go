package cplscheme

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/io"
)

// SimState is the time-bookkeeping half of a checkpoint").
type SimState struct {
	Time         float64
	Timesteps    int
	AdvanceCount int
}

// WriteSimState serializes state to <prefix>_simstate.txt, line-oriented
// key:value, no backward-compatibility guarantee.
func WriteSimState(prefix string, state SimState) error {
	f, err := os.Create(prefix + "_simstate.txt")
	if err != nil {
		return newErr(ConfigError, "checkpoint", "creating simstate file: %v", err)
	}
	defer f.Close()
	io.Ff(f, "time:%.17g\n", state.Time)
	io.Ff(f, "timesteps:%d\n", state.Timesteps)
	io.Ff(f, "advance-count:%d\n", state.AdvanceCount)
	return nil
}

// ReadSimState reads back what WriteSimState wrote.
func ReadSimState(prefix string) (SimState, error) {
	var st SimState
	kv, err := readKV(prefix + "_simstate.txt")
	if err != nil {
		return st, err
	}
	st.Time, err = strconv.ParseFloat(kv["time"], 64)
	if err != nil {
		return st, newErr(ConfigError, "checkpoint", "parsing time: %v", err)
	}
	st.Timesteps, err = strconv.Atoi(kv["timesteps"])
	if err != nil {
		return st, newErr(ConfigError, "checkpoint", "parsing timesteps: %v", err)
	}
	st.AdvanceCount, err = strconv.Atoi(kv["advance-count"])
	if err != nil {
		return st, newErr(ConfigError, "checkpoint", "parsing advance-count: %v", err)
	}
	return st, nil
}

// SchemeState is the scheme-specific half of a checkpoint: iteration count and the
// omega/history bookkeeping a post-processing variant needs to resume
// exactly, kept generic as a string map so any variant can round-trip its
// own keys without this package knowing their shape.
type SchemeState map[string]string

// WriteSchemeState serializes state to <prefix>_cplscheme.txt.
func WriteSchemeState(prefix string, state SchemeState) error {
	f, err := os.Create(prefix + "_cplscheme.txt")
	if err != nil {
		return newErr(ConfigError, "checkpoint", "creating cplscheme file: %v", err)
	}
	defer f.Close()
	for k, v := range state {
		io.Ff(f, "%s:%s\n", k, v)
	}
	return nil
}

// ReadSchemeState reads back what WriteSchemeState wrote.
func ReadSchemeState(prefix string) (SchemeState, error) {
	return readKV(prefix + "_cplscheme.txt")
}

func readKV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(ConfigError, "checkpoint", "opening %s: %v", path, err)
	}
	defer f.Close()
	kv := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			return nil, newErr(ConfigError, "checkpoint", "malformed line in %s: %q", path, line)
		}
		kv[line[:i]] = line[i+1:]
	}
	if err := sc.Err(); err != nil {
		return nil, newErr(ConfigError, "checkpoint", "reading %s: %v", path, err)
	}
	return kv, nil
}

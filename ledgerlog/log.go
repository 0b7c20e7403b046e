// Package ledgerlog wires btclog subsystem loggers the way pktd's
// pktlog/log does: one tagged Logger per package, all sharing a single
// backend.
package ledgerlog

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
)

var backend = btclog.NewBackend(os.Stdout)

// Subsystem tags, four characters wide the way btcd/pktd pad theirs
// (e.g. "BMGR", "PEER"). Exported so cmd/leafledgerd can enumerate them
// for a --debuglevel flag.
const (
	TagChecker = "CHKR"
	TagRuntime = "RUNT"
	TagLeafDB  = "LDB "
	TagSandbox = "SNDB"
	TagAPI     = "API "
	TagCodec   = "CDEC"
)

// Loggers is the full set of subsystems a daemon process can set levels
// on, keyed by tag.
var Loggers = map[string]btclog.Logger{}

// New registers and returns the Logger for tag, creating it on first use.
func New(tag string) btclog.Logger {
	if l, ok := Loggers[tag]; ok {
		return l
	}
	l := backend.Logger(tag)
	Loggers[tag] = l
	return l
}

// SetLevel sets the logging level for every registered subsystem, or a
// single one if tag is non-empty. Invalid level strings are ignored,
// matching btclog's own SetLevel behavior for unparsed input (left at the
// previous value).
func SetLevel(tag string, level string) {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return
	}
	if tag == "" {
		for _, l := range Loggers {
			l.SetLevel(lvl)
		}
		return
	}
	if l, ok := Loggers[tag]; ok {
		l.SetLevel(lvl)
	}
}

// SetOutput builds a new backend on w and replaces every entry of Loggers
// with a Logger on it; later calls to New return those. Loggers that
// packages already obtained from New keep writing to the previous backend.
func SetOutput(w io.Writer) {
	backend = btclog.NewBackend(w)
	for tag := range Loggers {
		Loggers[tag] = backend.Logger(tag)
	}
}

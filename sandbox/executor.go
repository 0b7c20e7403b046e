// Package sandbox runs guest bytecode in an isolated wasmtime instance per
// invocation, compiling once against a process-wide engine and executing
// many times against fresh per-call stores.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bytecodealliance/wasmtime-go/v25"

	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/ledgerlog"
	"github.com/pkt-cash/leafledger/leafwire"
)

var log = ledgerlog.New(ledgerlog.TagSandbox)

const entryPointName = "_entry"

// Executor owns one process-wide wasmtime.Engine. It is immutable after
// construction and safe for concurrent use by multiple batches.
type Executor struct {
	engine *wasmtime.Engine
}

// NewExecutor builds the engine from cfg, reading the cache config file at
// cfg.ConfigPath and rooting the compilation cache at cfg.CachePath (or
// home+"/cache" when absent). A construction failure is fatal to the
// process; callers should treat a non-nil error that way.
func NewExecutor(cfg Config, home string) (*Executor, er.R) {
	wasmtimeConfig := wasmtime.NewConfig()

	cachePath, err := rootedCacheConfigPath(cfg, home)
	if err != nil {
		return nil, ErrEngineInit(err)
	}
	if err := wasmtimeConfig.CacheConfigLoad(cachePath); err != nil {
		return nil, ErrEngineInit(err)
	}

	engine := wasmtime.NewEngineWithConfig(wasmtimeConfig)
	return &Executor{engine: engine}, nil
}

// rootedCacheConfigPath loads the cache config file at cfg.ConfigPath and,
// unless it already pins its own directory, rewrites a copy with a
// directory key pointing at cfg.resolveCachePath(home). wasmtime's cache
// config has no setter for the directory outside of the TOML file itself,
// so the directory is spliced into the file CacheConfigLoad actually reads.
func rootedCacheConfigPath(cfg Config, home string) (string, error) {
	contents, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return "", err
	}
	if strings.Contains(string(contents), "directory") {
		return cfg.ConfigPath, nil
	}

	rooted := strings.TrimRight(string(contents), "\n") + "\ndirectory = \"" + cfg.resolveCachePath(home) + "\"\n"

	rootedPath := filepath.Join(filepath.Dir(cfg.ConfigPath), ".wasmtime-cache-rooted.toml")
	if err := os.WriteFile(rootedPath, []byte(rooted), 0600); err != nil {
		return "", err
	}
	return rootedPath, nil
}

// hostState is the data a per-call store exposes to host functions. No
// host functions are wired yet; keeping the transaction context here
// regardless means adding one later doesn't change the store's shape.
type hostState struct {
	unsigned []byte
	unlocker []byte
	args     []byte
}

// ValidateScript compiles script.code, instantiates it with a store
// exposing the encoded unsigned transaction, unlocker, and script args,
// then calls its _entry() -> u32 export. A zero return and no trap is a
// pass; anything else is a failure tagged with the input's leaf id.
func (e *Executor) ValidateScript(script leafwire.Script, unsigned leafwire.UnsignedTransaction, unlocker []byte, inputId leafwire.LeafId) er.R {
	return e.run(script.Code, hostState{
		unsigned: unsigned.Encode(),
		unlocker: unlocker,
		args:     script.Args,
	}, inputId.String())
}

// ValidateOperator runs operatorCode the same way as ValidateScript but
// with no unlocker and no args. operatorLeafId is accepted as a future
// memoization key.
func (e *Executor) ValidateOperator(operatorCode []byte, operatorLeafId leafwire.LeafId, unsigned leafwire.UnsignedTransaction) er.R {
	return e.run(operatorCode, hostState{
		unsigned: unsigned.Encode(),
	}, operatorLeafId.String())
}

func (e *Executor) run(code []byte, state hostState, detail string) er.R {
	module, err := wasmtime.NewModule(e.engine, code)
	if err != nil {
		return ErrCompileFailed(err)
	}

	store := wasmtime.NewStore(e.engine)
	store.SetData(&state)
	// No WASI context is configured on this store, so the guest has no
	// filesystem, clock, or network capability.

	instance, err := wasmtime.NewInstance(store, module, []wasmtime.AsExtern{})
	if err != nil {
		return ErrCompileFailed(err)
	}

	export := instance.GetExport(store, entryPointName)
	if export == nil || export.Func() == nil {
		return ErrMissingEntryPoint(detail)
	}

	result, err := export.Func().Call(store)
	if err != nil {
		return ErrTrapped(detail, err)
	}

	code32, ok := result.(int32)
	if !ok || code32 != 0 {
		return ErrTrapped(detail, nil)
	}
	return nil
}

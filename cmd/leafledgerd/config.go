package main

// config is parsed by jessevdk/go-flags: struct tags drive the command-line
// flags, with defaults supplied via the `default` tag. No INI config file
// is read.
type config struct {
	Listen       string `long:"listen" description:"HTTP listen address" default:"127.0.0.1:8337"`
	DBPath       string `long:"db" description:"path to the bbolt leaf database" default:"leaves.db"`
	WasmConfig   string `long:"wasm-config" description:"path to the wasmtime cache config file" required:"true"`
	WasmCachePath string `long:"wasm-cache" description:"wasmtime compilation cache directory (default <home>/cache)"`
	HomeDir      string `long:"homedir" description:"base directory for defaulted paths" default:"."`
	StartVersion uint64 `long:"start-version" description:"first commit version to assign" default:"1"`
}

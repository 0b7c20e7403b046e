package sandbox

import "os"

// writeMinimalCacheConfig writes a wasmtime cache configuration file
// disabling the cache entirely, so tests don't depend on a writable
// shared cache directory.
func writeMinimalCacheConfig(path string) error {
	const contents = "[cache]\nenabled = false\n"
	return os.WriteFile(path, []byte(contents), 0600)
}

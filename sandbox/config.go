package sandbox

// Config names the cache configuration file and, optionally, the cache
// directory the engine's compilation cache is rooted at.
type Config struct {
	ConfigPath string
	CachePath  *string
}

// resolveCachePath returns CachePath if set, or home joined with "cache"
// when no cache directory was configured.
func (c Config) resolveCachePath(home string) string {
	if c.CachePath != nil {
		return *c.CachePath
	}
	return home + "/cache"
}

// Command leafledgerd runs the HTTP ingest layer over a Storage and an
// Executor, wiring the validation core up to a network-facing daemon.
package main

import (
	"fmt"
	"net/http"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkt-cash/leafledger/api"
	"github.com/pkt-cash/leafledger/leafdb"
	"github.com/pkt-cash/leafledger/ledgerlog"
	"github.com/pkt-cash/leafledger/runtime"
	"github.com/pkt-cash/leafledger/sandbox"
)

var log = ledgerlog.New(ledgerlog.TagAPI)

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain() error {
	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		return err
	}

	store, err := leafdb.OpenBoltStorage(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var cachePath *string
	if cfg.WasmCachePath != "" {
		cachePath = &cfg.WasmCachePath
	}
	executor, serr := sandbox.NewExecutor(sandbox.Config{
		ConfigPath: cfg.WasmConfig,
		CachePath:  cachePath,
	}, cfg.HomeDir)
	if serr != nil {
		return serr
	}

	rt := runtime.New(store, executor)
	runtime.MustRegister(prometheus.DefaultRegisterer)

	srv, macaroonHex, merr := api.NewServer(rt, cfg.StartVersion)
	if merr != nil {
		return merr
	}

	log.Infof("admin macaroon (hex, keep secret): %s", macaroonHex)
	log.Infof("listening on %s", cfg.Listen)
	return http.ListenAndServe(cfg.Listen, srv.Handler())
}

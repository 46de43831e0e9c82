// Command hfpagentd is the Hands-Free Profile Audio Gateway daemon: it
// loads settings.ini, brings up logging, the BlueZ D-Bus native adapter
// and the in-memory registry, then runs one hfp.Machine per bonded peer
// until told to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/ini.v1"

	"github.com/go-hfp/hfpagent/hfp"
	"github.com/go-hfp/hfpagent/internal/config"
	"github.com/go-hfp/hfpagent/internal/eventbus"
	"github.com/go-hfp/hfpagent/internal/logging"
	"github.com/go-hfp/hfpagent/internal/nativeadapter"
	"github.com/go-hfp/hfpagent/internal/registry"
)

type options struct {
	ConfigFile string `short:"c" long:"config" description:"path to settings.ini" default:"settings.ini"`
	Bonded     string `short:"b" long:"bonded" description:"comma-separated list of bonded peer addresses to manage"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	cfg := ini.Empty()
	if _, err := os.Stat(opts.ConfigFile); err == nil {
		loaded, err := ini.Load(opts.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hfpagentd: load %s: %v\n", opts.ConfigFile, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	settings := config.Load(cfg)
	loggers := logging.New(logging.LoadConfig(cfg))
	defer loggers.Close()

	bus := eventbus.New(32)

	bonded := make(map[string]bool)
	for _, p := range strings.Split(opts.Bonded, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			bonded[strings.ToUpper(p)] = true
		}
	}
	isBonded := func(peer string) bool { return bonded[strings.ToUpper(peer)] }

	var reg *registry.Registry
	reg = registry.New(registry.Options{
		Log:                  loggers.Registry,
		Bus:                  bus,
		BondedFn:             isBonded,
		AudioRouteAllowed:    settings.AudioRouteAllowed,
		InbandRingingEnabled: settings.InbandRingingEnabled,
		ForceScoAudio:        settings.ForceScoAudio,
		OnAccessRequest: func(peer string) {
			loggers.Registry.WithField("peer", peer).Warn("phonebook access requested, auto-rejecting (no UI wired)")
			go reg.ReplyPhonebookAccess(peer, false, false)
		},
		OnCallActivity: func(peer, number string) {
			loggers.Registry.WithField("peer", peer).Infof("dial-out requested: %s", number)
		},
	})

	var adapter *nativeadapter.Adapter
	adapter, err := nativeadapter.New(loggers.Adapter, func(peer string, ev hfp.StackEvent) {
		if m, ok := reg.Machine(peer); ok {
			m.Send(hfp.Message{Kind: hfp.KindStackEvent, Peer: peer, Payload: ev})
			return
		}
		if ev.Type == hfp.EventConnectionStateChanged && ev.IntValue == hfp.ConnStateConnected && isBonded(peer) {
			m := newMachine(loggers, settings, adapter, reg, peer)
			m.Send(hfp.Message{Kind: hfp.KindStackEvent, Peer: peer, Payload: ev})
		}
	})
	if err != nil {
		loggers.Adapter.Fatalf("nativeadapter.New: %v", err)
	}
	defer adapter.Close()

	for peer := range bonded {
		newMachine(loggers, settings, adapter, reg, peer)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	loggers.Registry.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), settings.ConnectTimeout)
	defer cancel()
	_ = reg.Close(ctx)
}

func newMachine(loggers *logging.Loggers, settings *config.Settings, adapter *nativeadapter.Adapter, reg *registry.Registry, peer string) *hfp.Machine {
	tel := registry.NewTelephony(registry.TelephonyOptions{Log: loggers.Registry.WithField("peer", peer)})
	m, err := hfp.NewMachine(hfp.Config{
		Peer:              peer,
		Native:            adapter,
		System:            tel,
		Service:           reg,
		Log:               loggers.Machine,
		ConnectTimeout:    settings.ConnectTimeout,
		DialingOutTimeout: settings.DialingOutTimeout,
		StartVrTimeout:    settings.StartVrTimeout,
		ClccRspTimeout:    settings.ClccRspTimeout,
	})
	if err != nil {
		loggers.Machine.WithField("peer", peer).Errorf("NewMachine: %v", err)
		return nil
	}
	reg.Adopt(peer, m)
	return m
}

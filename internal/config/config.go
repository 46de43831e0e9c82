// Package config loads hfpagentd's settings.ini: timer defaults for the
// per-peer state machine, the SCO audio policy flags and the adapter
// selection. The [logging] section is read separately by
// internal/logging.LoadConfig.
package config

import (
	"time"

	"gopkg.in/ini.v1"
)

// Settings holds the [hfp] and [adapter] sections of settings.ini.
type Settings struct {
	ConnectTimeout    time.Duration
	DialingOutTimeout time.Duration
	StartVrTimeout    time.Duration
	ClccRspTimeout    time.Duration

	ForceScoAudio         bool
	InbandRingingEnabled  bool
	AudioRouteAllowed     bool

	AdapterID string
}

// Load reads Settings from cfg, falling back to literal defaults (the
// timer ones equal to the hfp package's Default* constants) whenever a key
// is absent, mirroring the teacher's MustInt/MustBool/MustString fallback
// style.
func Load(cfg *ini.File) *Settings {
	sec := cfg.Section("hfp")
	s := &Settings{
		ConnectTimeout:       time.Duration(sec.Key("connect_timeout_ms").MustInt(30000)) * time.Millisecond,
		DialingOutTimeout:    time.Duration(sec.Key("dialing_out_timeout_ms").MustInt(10000)) * time.Millisecond,
		StartVrTimeout:       time.Duration(sec.Key("start_vr_timeout_ms").MustInt(5000)) * time.Millisecond,
		ClccRspTimeout:       time.Duration(sec.Key("clcc_rsp_timeout_ms").MustInt(5000)) * time.Millisecond,
		ForceScoAudio:        sec.Key("force_sco_audio").MustBool(false),
		InbandRingingEnabled: sec.Key("inband_ringing_enabled").MustBool(true),
		AudioRouteAllowed:    sec.Key("audio_route_allowed").MustBool(true),
	}

	sec = cfg.Section("adapter")
	s.AdapterID = sec.Key("hci_device").MustString("hci0")
	return s
}

package config

import (
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	//APP NAME
	AppName = "Meterboard"
	//Usage
	Usage = "Meter panel planning and dashboard embed URL service"
	//Vresion Num
	Version = "0.1.0"
	//Author Nmae
	Author = "LoadStack Developer Group"
	//Email Address
	Email = "oiooj@qq.com"
)

var (
	mux sync.RWMutex

	// global config
	C = Default()
)

type Config struct {
	CommonConf  CommonConfig  `toml:"common"`
	GrafanaConf GrafanaConfig `toml:"grafana"`
	SourceConf  SourceConfig  `toml:"source"`
	ViewConf    ViewConfig    `toml:"view"`
	LimitConf   LimitConfig   `toml:"limit"`
	LogConf     LogConfig     `toml:"log"`
}

type CommonConfig struct {
	HttpBind string `toml:"httpbind"`
	PID      string `toml:"pid"`
}

// GrafanaConfig is the fallback dashboard target; settings rows override
// base and dashboard per request.
type GrafanaConfig struct {
	BaseURL   string `toml:"baseurl"`
	Dashboard string `toml:"dashboard"`
	Refresh   bool   `toml:"refresh"`
	Kiosk     bool   `toml:"kiosk"`
	TimeRange string `toml:"timerange"`
}

// SourceConfig selects where objects and settings are read from.
type SourceConfig struct {
	Kind     string `toml:"kind"`
	Dir      string `toml:"dir"`
	DSN      string `toml:"dsn"`
	MaxConns int32  `toml:"maxconns"`
	Remote   string `toml:"remote"`
	Timeout  int    `toml:"timeout"`
}

type ViewConfig struct {
	// Debounce of tab switches in milliseconds.
	Debounce int `toml:"debounce"`
	// SessionTTL in minutes of an idle session.
	SessionTTL int `toml:"sessionttl"`
}

type LimitConfig struct {
	Rate   float64 `toml:"rate"`
	Burst  int     `toml:"burst"`
	Fanout int     `toml:"fanout"`
}

// LogConfig is log config struct
type LogConfig struct {
	Dir           string `toml:"logdir"`
	Level         string `toml:"loglevel"`
	Logrotatenum  int    `toml:"logrotatenum"`
	Logrotatesize uint64 `toml:"logrotatesize"`
}

// Default returns the values used for every key a config file leaves out.
func Default() Config {
	return Config{
		CommonConf: CommonConfig{HttpBind: ":8004"},
		SourceConf: SourceConfig{Kind: "bolt", Dir: "/tmp/meterboard", Timeout: 5},
		ViewConf:   ViewConfig{Debounce: 500, SessionTTL: 30},
		LimitConf:  LimitConfig{Rate: 20, Burst: 40, Fanout: 8},
		LogConf:    LogConfig{Dir: "/tmp/meterboard/log", Level: "INFO", Logrotatenum: 5, Logrotatesize: 1024 * 1024 * 100},
	}
}

func ParseConfig(path string) error {
	mux.Lock()
	defer mux.Unlock()

	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return err
	}
	C = c
	return nil
}

func GetConfig() Config {
	mux.RLock()
	defer mux.RUnlock()
	return C
}

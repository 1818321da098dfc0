package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lodastack/log"
	"github.com/lodastack/meterboard/config"
	"github.com/lodastack/meterboard/httpd"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/source"
)

// Command line defaults
const (
	DefaultConfigFile = "/etc/meterboard/meterboard.conf"

	openSourceTimeout = 10 * time.Second
)

// Command line parameters
var configFile string
var cpuProfile string
var memProfile string

// These variables are populated via the Go linker.
var (
	version   = "0"
	commit    = "unknown"
	branch    = "unknown"
	buildtime = "unknown"
)

func init() {
	flag.StringVar(&configFile, "config", DefaultConfigFile, "Set the config file")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to a file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to a file")
}

// Main represents the program execution.
type Main struct {
	logger *log.Logger
}

// NewMain return a new instance of Main.
func NewMain() *Main {
	return &Main{
		logger: log.New(config.C.LogConf.Level, "main", model.LogBackend),
	}
}

func main() {
	flag.Parse()

	// Start requested profiling.
	startProfile(cpuProfile, memProfile)

	//parse config file
	err := config.ParseConfig(configFile)
	if err != nil {
		log.Errorf("Parse Config File Error : %v", err)
		os.Exit(1)
	}

	// init log backend
	err = initLog(config.C.LogConf.Dir, config.C.LogConf.Level, config.C.LogConf.Logrotatenum, config.C.LogConf.Logrotatesize)
	if err != nil {
		log.Errorf("failed to new log backend: %v", err)
		os.Exit(1)
	}

	m := NewMain()
	if err := m.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Start starts main meterboard service
func (m *Main) Start() error {
	m.logger.Printf("meterboard starting, version %s, branch %s, commit %s, built %s", version, branch, commit, buildtime)

	c := config.GetConfig()

	//save pid to file
	if c.CommonConf.PID != "" {
		err := ioutil.WriteFile(c.CommonConf.PID, []byte(strconv.Itoa(os.Getpid())), 0744)
		if err != nil {
			return fmt.Errorf("write PID file error: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), openSourceTimeout)
	src, err := source.New(ctx, sourceConfig(c.SourceConf))
	cancel()
	if err != nil {
		return fmt.Errorf("open %s source failed: %v", c.SourceConf.Kind, err)
	}

	// Create and configure HTTP service.
	h := httpd.New(c.CommonConf.HttpBind, src, httpOptions(c))
	if err := h.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP service: %v", err)
	}

	m.logger.Printf("meterboard started successfully")

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-terminate
	stopProfile()

	// close HTTP service
	if err := h.Close(); err != nil {
		m.logger.Errorf("close HTTP failed: %v", err)
	}

	if err := src.Close(); err != nil {
		m.logger.Errorf("close source failed: %v", err)
	}

	if c.CommonConf.PID != "" {
		if err := os.Remove(c.CommonConf.PID); err != nil {
			m.logger.Errorf("clean PID file failed: %v", err)
		}
	}

	// flush log
	model.LogBackend.Flush()

	m.logger.Printf("meterboard exiting")
	return nil
}

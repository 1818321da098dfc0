package main

import (
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/lodastack/log"
	"github.com/lodastack/meterboard/config"
	"github.com/lodastack/meterboard/httpd"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/source"
)

func initLog(dir string, level string, rotatenum int, size uint64) error {
	var err error
	model.LogBackend, err = log.NewFileBackend(dir)
	if err != nil {
		return err
	}
	log.SetLogging(level, model.LogBackend)
	log.Rotate(rotatenum, size)
	return nil
}

func sourceConfig(c config.SourceConfig) source.Config {
	return source.Config{
		Kind:     c.Kind,
		Dir:      c.Dir,
		DSN:      c.DSN,
		MaxConns: c.MaxConns,
		Remote:   c.Remote,
		Timeout:  c.Timeout,
	}
}

func httpOptions(c config.Config) httpd.Options {
	return httpd.Options{
		GrafanaBase: c.GrafanaConf.BaseURL,
		Dashboard:   c.GrafanaConf.Dashboard,
		Refresh:     c.GrafanaConf.Refresh,
		Kiosk:       c.GrafanaConf.Kiosk,
		TimeRange:   c.GrafanaConf.TimeRange,
		Debounce:    time.Duration(c.ViewConf.Debounce) * time.Millisecond,
		SessionTTL:  time.Duration(c.ViewConf.SessionTTL) * time.Minute,
		Rate:        c.LimitConf.Rate,
		Burst:       c.LimitConf.Burst,
		Fanout:      c.LimitConf.Fanout,
	}
}

// prof stores the file locations of active profiles.
var prof struct {
	cpu *os.File
	mem *os.File
}

// startProfile initializes the CPU and memory profile, if specified.
func startProfile(cpuprofile, memprofile string) {
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Errorf("failed to create CPU profile file at %s: %s", cpuprofile, err.Error())
			return
		}
		log.Printf("writing CPU profile to: %s\n", cpuprofile)
		prof.cpu = f
		pprof.StartCPUProfile(prof.cpu)
	}

	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			log.Errorf("failed to create memory profile file at %s: %s", memprofile, err.Error())
			return
		}
		log.Printf("writing memory profile to: %s\n", memprofile)
		prof.mem = f
		runtime.MemProfileRate = 4096
	}
}

// stopProfile closes the CPU and memory profiles if they are running.
func stopProfile() {
	if prof.cpu != nil {
		pprof.StopCPUProfile()
		prof.cpu.Close()
		log.Printf("CPU profiling stopped")
	}
	if prof.mem != nil {
		pprof.Lookup("heap").WriteTo(prof.mem, 0)
		prof.mem.Close()
		log.Printf("memory profiling stopped")
	}
}

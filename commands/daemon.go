package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jasonlvhit/gocron"

	"github.com/sheetsync/sheets-to-mysql/config"
	"github.com/sheetsync/sheets-to-mysql/log"
)

const DEFAULT_SCHEDULE = "11:00"

var DaemonCmd = Daemon{
	command: command{
		config:  DEFAULT_CONFIG,
		workdir: DEFAULT_WORKDIR,
	},
}

// Daemon runs the refresh once a day for hosts without an external
// scheduler. A run that is still in progress when the next one is due causes
// that run to be skipped.
type Daemon struct {
	command
	at  string
	now bool
}

func (cmd *Daemon) Name() string {
	return "daemon"
}

func (cmd *Daemon) Description() string {
	return "Runs the refresh every day at the scheduled time"
}

func (cmd *Daemon) Usage() string {
	return "--config <file> [--at <HH:MM>] [--now]"
}

func (cmd *Daemon) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] daemon [options] --config <file>\n", APP)
	fmt.Println()
	fmt.Printf("  Runs the refresh every day at the time in the job file [schedule] section (default %v,\n", DEFAULT_SCHEDULE)
	fmt.Println("  local time) until interrupted. The job file is reloaded for every run.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s daemon --config sales.toml --at 06:30 --now\n", APP)
	fmt.Println()
}

func (cmd *Daemon) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("daemon")

	flagset.StringVar(&cmd.at, "at", cmd.at, "Time of day for the run (HH:MM). Defaults to the job file schedule")
	flagset.BoolVar(&cmd.now, "now", cmd.now, "Also runs the refresh immediately on startup")

	return flagset
}

func (cmd *Daemon) Execute(ctx context.Context, options *Options) error {
	log.SetDebug(options.Debug)

	cfg, err := cmd.load()
	if err != nil {
		return err
	}

	at := schedule(cmd.at, cfg)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	task := exclusive(func() { cmd.refresh(ctx) })
	job := func() {
		if !task() {
			log.Warnf("previous refresh still in progress - skipping scheduled run")
		}
	}

	scheduler := gocron.NewScheduler()
	if err := scheduler.Every(1).Day().At(at).Do(job); err != nil {
		return fmt.Errorf("invalid schedule '%v' (%v)", at, err)
	}

	_, next := scheduler.NextRun()
	log.Infof("%s daemon started  next run %v", APP, next.Format("2006-01-02 15:04"))

	if cmd.now {
		go job()
	}

	stop := scheduler.Start()

	<-ctx.Done()

	stop <- true
	scheduler.Clear()

	log.Infof("%s daemon stopped", APP)

	return nil
}

func (cmd *Daemon) refresh(ctx context.Context) {
	cfg, err := cmd.load()
	if err != nil {
		log.Errorf("%v", err)
		return
	}

	run := Run{command: cmd.command}
	if _, err := run.run(ctx, cfg); err != nil {
		log.Errorf("refresh failed (exit code %v)", ExitCode(err))
	}
}

func schedule(at string, cfg *config.Config) string {
	if at = strings.TrimSpace(at); at != "" {
		return at
	}

	if cfg != nil && cfg.Schedule.At != "" {
		return cfg.Schedule.At
	}

	return DEFAULT_SCHEDULE
}

// exclusive wraps f so that a call made while a previous call is still
// running returns false without calling f.
func exclusive(f func()) func() bool {
	var guard sync.Mutex

	return func() bool {
		if !guard.TryLock() {
			return false
		}

		defer guard.Unlock()

		f()

		return true
	}
}

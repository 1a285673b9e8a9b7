package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/vietanhduong/ringcapd/pkg/bytesize"
	"github.com/vietanhduong/ringcapd/pkg/capture"
	"github.com/vietanhduong/ringcapd/pkg/controller"
	"github.com/vietanhduong/ringcapd/pkg/daemon"
	"github.com/vietanhduong/ringcapd/pkg/proc"
)

const (
	DEFAULT_LOGFILE = "/var/log/ringcapd.log"
	DEFAULT_PIDFILE = "/var/run/ringcapd.pid"

	// ring.DEFAULT_BUFFER_SIZE in the unit syntax accepted by -m.
	DEFAULT_MAX_SIZE = "50M"
)

type options struct {
	debug          bool
	logfile        string
	iface          string
	maxSize        string
	pidfile        string
	noPromisc      bool
	verbose        int
	statusInterval time.Duration
	snaplen        int
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "ringcapd <dumpdir> [flags] [expression]",
		Short: "Capture packets into a fixed size ring buffer",
		Long: "Capture packets into a fixed size ring buffer.\n" +
			"The buffer is written to <dumpdir> when SIGUSR1 is received, " +
			"SIGUSR2 logs the buffer status.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(opts, args[0], args[1:])
			if err != nil {
				glog.Errorf("%v", err)
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&opts.debug, "debug", "d", false, "Debug, do not become daemon")
	fs.StringVarP(&opts.logfile, "logfile", "f", DEFAULT_LOGFILE, "Logfile")
	fs.StringVarP(&opts.iface, "interface", "i", "", "Listen for packets on interface or read them from a pcap file")
	fs.StringVarP(&opts.maxSize, "max-size", "m", DEFAULT_MAX_SIZE, "Maximum size of packet buffer (B, K, M or G)")
	fs.StringVarP(&opts.pidfile, "pidfile", "p", DEFAULT_PIDFILE, "PID file")
	fs.BoolVarP(&opts.noPromisc, "no-promisc", "P", false, "Do not listen in promiscuous mode")
	fs.CountVarP(&opts.verbose, "verbose", "v", "Be verbose, repeat to increase")
	fs.DurationVar(&opts.statusInterval, "status-interval", controller.DEFAULT_STATUS_INTERVAL, "Interval between status lines when verbose")
	fs.IntVar(&opts.snaplen, "snaplen", capture.DEFAULT_SNAPLEN, "Bytes to capture of every packet")
	proc.RegisterFlags(fs)
	return cmd
}

func run(opts *options, dumpdir string, expr []string) (err error) {
	if err = setupLogging(opts.verbose); err != nil {
		return err
	}
	defer glog.Flush()

	if err = isDir(dumpdir); err != nil {
		return err
	}
	size, err := bytesize.Parse(opts.maxSize)
	if err != nil {
		return fmt.Errorf("failed to convert max buffer size: %w", err)
	}

	if !opts.debug {
		if err = daemon.RedirectOutput(opts.logfile); err != nil {
			return err
		}
		if err = proc.WritePidFile(opts.pidfile); err != nil {
			glog.Errorf("%v", err)
		}
		defer func() {
			if err := proc.RemovePidFile(opts.pidfile); err != nil {
				glog.Errorf("%v", err)
			}
		}()
		daemon.IgnoreDisruptions()
	}

	glog.Infof("+-+-+-+-+-+ Capture Started +-+-+-+-+-+")
	spec := controller.Spec{
		DumpDir: dumpdir,
		Capture: capture.Options{
			Device:      opts.iface,
			Promiscuous: !opts.noPromisc,
			Filter:      strings.Join(expr, " "),
			SnapLen:     opts.snaplen,
		},
		BufferSize: size,
	}
	if opts.verbose > 0 {
		spec.StatusInterval = opts.statusInterval
	}
	ctrl, err := controller.New(spec)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	logSummary(opts, spec, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go daemon.Forward(ctx, daemon.Notify(opts.debug), ctrl, cancel)

	ctrl.Run(ctx)
	return nil
}

// setupLogging sends glog output to stderr, which becomes the log file once
// daemonized, at the requested verbosity.
func setupLogging(verbose int) error {
	for name, value := range map[string]string{
		"logtostderr": "true",
		"v":           strconv.Itoa(verbose),
	} {
		if err := flag.Set(name, value); err != nil {
			return fmt.Errorf("set glog flag %s: %w", name, err)
		}
	}
	return flag.CommandLine.Parse(nil)
}

func isDir(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s: not a directory", path)
	}
	return nil
}

func logSummary(opts *options, spec controller.Spec, ctrl *controller.Controller) {
	glog.Infof("Dump directory: %s", spec.DumpDir)
	if !opts.debug {
		glog.Infof("Log file: %s", opts.logfile)
		glog.Infof("PID file: %s", opts.pidfile)
	}
	glog.Infof("Buffer size: %s", bytesize.Format(spec.BufferSize))
	glog.V(1).Infof("Link layer header length on %s: %d", ctrl.Device(), ctrl.HeaderLen())
	if spec.Capture.Filter != "" {
		glog.Infof("Filter: %s", spec.Capture.Filter)
	} else {
		glog.Infof("No capture filter")
	}
	if spec.StatusInterval > 0 {
		glog.V(1).Infof("Status log interval %s", spec.StatusInterval)
	}
}

// Command ftsagent is the device-side agent of the serial file-transfer
// protocol: it opens a serial line, speaks the framed request/response
// protocol, and services file and directory operations against the local
// filesystem until the process is signaled or a fatal protocol error
// occurs. A silent line (including a disconnected host) is not an exit
// condition: the agent keeps waiting for the next message.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gooofy/ftsagent/internal/agent"
	"github.com/gooofy/ftsagent/internal/fsops"
	"github.com/gooofy/ftsagent/internal/framing"
	"github.com/gooofy/ftsagent/internal/serialport"
	"github.com/gooofy/ftsagent/internal/session"
)

var (
	device  = flag.String("D", defaultDevice, "serial device")
	baud    = flag.Int("b", 19200, "baud rate")
	verbose = flagCounter("v", "increase verbosity (repeatable)")
)

// defaultDevice is the platform's usual serial port; overridable with -D.
const defaultDevice = "/dev/ttyS0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := logrus.New()
	log.SetLevel(levelForVerbosity(*verbose))
	log.Infof("starting ftsagent on %s at %d baud", *device, *baud)

	transport, err := serialport.Open(*device, *baud)
	if err != nil {
		log.WithError(err).Fatal("failed to open serial device")
	}
	transport.SetLogger(log)
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
		transport.Close()
	}()

	framer := framing.New(transport, log)
	sess := session.New()
	a := agent.New(framer, fsops.NewNative(), sess, log)

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		if err := sess.CloseOpenFile(); err != nil {
			log.WithError(err).Warn("error closing open file during shutdown")
		}
		log.WithError(err).Fatal("agent terminated")
	}

	if err := sess.CloseOpenFile(); err != nil {
		log.WithError(err).Warn("error closing open file during shutdown")
	}
	log.Info("shut down cleanly")
}

// levelForVerbosity maps a repeated -v count to a logrus level, starting
// from Warn (the default, quietest level that still surfaces problems).
func levelForVerbosity(count int) logrus.Level {
	levels := []logrus.Level{
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
		logrus.TraceLevel,
	}
	if count >= len(levels) {
		count = len(levels) - 1
	}
	return levels[count]
}

// countFlag implements flag.Value as a counter, so "-v -v -v" raises
// verbosity once per occurrence rather than taking a value. A combined
// "-vvv" is parsed by the flag package as an unknown flag named "vvv".
type countFlag int

func (c *countFlag) String() string { return fmt.Sprintf("%d", int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }
func (c *countFlag) Set(string) error {
	*c++
	return nil
}

func flagCounter(name, usage string) *int {
	c := new(countFlag)
	flag.Var(c, name, usage)
	return (*int)(c)
}

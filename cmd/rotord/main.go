// rotord runs the axis controller against simulated peripherals: the
// motion engine ticks on real timers, the register window is served over
// Modbus, and an optional TUI panel stands in for the operator HMI and
// the master encoder.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"rotor/fieldbus"
	"rotor/hal"
	"rotor/motion"
	"rotor/panel"
	"rotor/regs"
	"rotor/scale"
)

func main() {
	app := &cli.App{
		Name:  "rotord",
		Usage: "simulated rotary axis controller",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tcp",
				Usage: "Modbus TCP listen address",
				Value: "localhost:1502",
			},
			&cli.StringFlag{
				Name:  "serial",
				Usage: "Modbus RTU serial device (optional)",
			},
			&cli.IntFlag{
				Name:  "scales",
				Usage: "number of master scale channels",
				Value: 4,
			},
			&cli.Float64Flag{
				Name:  "sync-hz",
				Usage: "sync tick rate; the firmware runs 50k, a simulation does not need to",
				Value: 5000,
			},
			&cli.BoolFlag{
				Name:  "panel",
				Usage: "run the interactive operator panel",
				Value: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	nScales := c.Int("scales")
	if nScales < 1 {
		return fmt.Errorf("need at least one scale channel")
	}

	counters := make([]hal.Counter, nScales)
	sims := make([]*hal.SimCounter, nScales)
	for i := range counters {
		sims[i] = &hal.SimCounter{}
		counters[i] = sims[i]
	}

	win := regs.New(nScales)
	scales := scale.New(counters...)

	pulse := &hal.SimPulse{Width: 150 * time.Microsecond}
	indexTimer := &hal.SimTimer{ClockHz: motion.ClockHz}
	syncTick := &hal.SimTick{}

	eng := motion.New(win, scales, motion.Config{
		Pulse:      pulse,
		Dir:        &hal.SimPin{},
		Enable:     &hal.SimPin{},
		IndexTimer: indexTimer,
		SyncSource: syncTick,
	})
	pulse.OnComplete(eng.PulseDone)
	eng.Start()

	bus := fieldbus.New(win)
	if addr := c.String("tcp"); addr != "" {
		if err := bus.ListenTCP(addr); err != nil {
			return err
		}
	}
	if dev := c.String("serial"); dev != "" {
		if err := bus.ListenRTU(dev); err != nil {
			return err
		}
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// one goroutine multiplexes the sync and index ticks, so the two
	// tick handlers never interleave — the simulation's stand-in for
	// prioritized interrupts that cannot preempt each other mid-field
	g.Go(func() error {
		syncTick.Start()
		defer syncTick.Stop()

		syncPeriod := time.Duration(float64(time.Second) / c.Float64("sync-hz"))
		syncT := time.NewTicker(syncPeriod)
		defer syncT.Stop()

		idxT := time.NewTimer(indexTimer.Period())
		defer idxT.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-syncT.C:
				eng.SyncTick()
			case <-idxT.C:
				eng.IndexTick()
				idxT.Reset(indexTimer.Period())
			}
		}
	})

	// supervisor task
	g.Go(func() error {
		eng.Run(ctx)
		return ctx.Err()
	})

	if c.Bool("panel") {
		err := panel.Run(eng, sims[0], 10)
		stop()
		_ = g.Wait()
		return err
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emberos/ember/pkg/actor"
	"github.com/emberos/ember/pkg/config"
	"github.com/emberos/ember/pkg/kernel"
	"github.com/emberos/ember/pkg/log"
	"github.com/emberos/ember/pkg/metrics"
	"github.com/emberos/ember/pkg/types"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a demo application on the event kernel",
}

var demoReactorCmd = &cobra.Command{
	Use:   "reactor",
	Short: "Reactor fed by a periodic time event",
	RunE:  runDemoReactor,
}

var demoHSMCmd = &cobra.Command{
	Use:   "hsm",
	Short: "Traffic-light hierarchical state machine",
	RunE:  runDemoHSM,
}

var demoStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream topic with a producer and one subscriber",
	RunE:  runDemoStream,
}

func init() {
	demoCmd.PersistentFlags().Duration("duration", 5*time.Second, "How long the demo runs")
	demoCmd.PersistentFlags().String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9200)")

	demoCmd.AddCommand(demoReactorCmd)
	demoCmd.AddCommand(demoHSMCmd)
	demoCmd.AddCommand(demoStreamCmd)
}

// newDemoKernel builds and starts a kernel from the optional config file,
// wiring the metrics collector when an address was given.
func newDemoKernel(cmd *cobra.Command) (*kernel.Kernel, func(), error) {
	cfg := config.Default()
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	k, err := kernel.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	k.Start()

	instance := uuid.New().String()[:8]
	logger := log.Subsystem("demo")
	logger.Info().Str("instance", instance).Msg("Demo kernel running")

	var collector *metrics.Collector
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		collector = metrics.NewCollector(k, time.Second)
		collector.Start()
		go func() {
			if err := metrics.Serve(addr); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		logger.Info().Str("addr", addr).Msg("Metrics exposed")
	}

	cleanup := func() {
		if collector != nil {
			collector.Stop()
		}
		k.Stop()
	}
	return k, cleanup, nil
}

func runDemoReactor(cmd *cobra.Command, args []string) error {
	k, cleanup, err := newDemoKernel(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := log.Subsystem("demo")

	blinky, err := actor.NewReactor(k, "blinky", 2)
	if err != nil {
		return fmt.Errorf("failed to create reactor: %w", err)
	}

	ticks := 0
	blinky.Start(func(r *actor.Reactor, e *types.Event) {
		if e.Is("Tick") {
			ticks++
			logger.Info().Int("tick", ticks).Msg("Blink")
		}
	})

	k.SendPeriod("blinky", "Tick", 500)

	d, _ := cmd.Flags().GetDuration("duration")
	time.Sleep(d)

	k.TimeCancel("Tick")
	blinky.Stop()
	logger.Info().Int("ticks", ticks).Msg("Reactor demo done")
	return nil
}

// Traffic-light states: Red and Green nest under Operational, whose init
// drills into Red.
func lightOperational(sm *actor.SM, e *types.Event) types.Ret {
	switch e.Topic {
	case types.TopicInit:
		return sm.Tran(lightRed)
	case types.TopicEnter, types.TopicExit:
		logState(e)
		return types.RetHandled
	}
	return sm.Super(actor.StateTop)
}

func lightRed(sm *actor.SM, e *types.Event) types.Ret {
	switch e.Topic {
	case "Light_Timer":
		return sm.Tran(lightGreen)
	case types.TopicEnter, types.TopicExit:
		logState(e)
		return types.RetHandled
	}
	return sm.Super(lightOperational)
}

func lightGreen(sm *actor.SM, e *types.Event) types.Ret {
	switch e.Topic {
	case "Light_Timer":
		return sm.Tran(lightRed)
	case types.TopicEnter, types.TopicExit:
		logState(e)
		return types.RetHandled
	}
	return sm.Super(lightOperational)
}

func lightInitial(sm *actor.SM, e *types.Event) types.Ret {
	return sm.Tran(lightOperational)
}

func logState(e *types.Event) {
	log.Subsystem("demo").Info().Str("protocol", e.Topic).Msg("State change")
}

func runDemoHSM(cmd *cobra.Command, args []string) error {
	k, cleanup, err := newDemoKernel(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	light, err := actor.NewSM(k, "light", 3, 4)
	if err != nil {
		return fmt.Errorf("failed to create state machine: %w", err)
	}

	light.Task().Subscribe("Light_Timer")
	light.Start(lightInitial)

	k.PublishPeriod("Light_Timer", 1000)

	d, _ := cmd.Flags().GetDuration("duration")
	time.Sleep(d)

	k.TimeCancel("Light_Timer")
	light.Stop()
	return nil
}

func runDemoStream(cmd *cobra.Command, args []string) error {
	k, cleanup, err := newDemoKernel(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := log.Subsystem("demo")

	k.DBRegister("Sensor_Raw", 64, types.AttrStream)

	sink, err := actor.NewReactor(k, "sink", 2)
	if err != nil {
		return fmt.Errorf("failed to create reactor: %w", err)
	}
	sink.Task().Subscribe("Sensor_Raw")

	sink.Start(func(r *actor.Reactor, e *types.Event) {
		if !e.Is("Sensor_Raw") {
			return
		}
		buf := make([]byte, e.Size)
		n := k.DBStreamRead("Sensor_Raw", buf)
		logger.Info().Int("bytes", n).Hex("data", buf[:n]).Msg("Drained stream")
	})

	stop := make(chan struct{})
	go func() {
		seq := byte(0)
		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.DBStreamWrite("Sensor_Raw", []byte{seq, seq + 1, seq + 2})
				k.Publish("Sensor_Raw")
				seq += 3
			case <-stop:
				return
			}
		}
	}()

	d, _ := cmd.Flags().GetDuration("duration")
	time.Sleep(d)

	close(stop)
	sink.Stop()
	return nil
}

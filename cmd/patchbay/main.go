package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ingyamilmolinar/patchbay/core/engine"
	"github.com/ingyamilmolinar/patchbay/core/model"
	"github.com/ingyamilmolinar/patchbay/core/node"
	game_log "github.com/ingyamilmolinar/patchbay/internal/log"
)

func main() {
	var (
		logLevel = flag.String("log-level", "info", "debug, info, warn, error or none")
		mode     = flag.String("mode", "arp", "pattern mode: chord, arp or random")
		period   = flag.Float64("period", node.DefaultTrigPeriod, "pattern period in milliseconds")
		voices   = flag.Int("voices", 3, "oscillators wired to the demo trigger")
		dur      = flag.Duration("dur", 5*time.Second, "how long to play before exiting")
		patch    = flag.String("patch", "", "JSON patch file to load instead of the demo graph")
	)
	flag.Parse()

	logger := game_log.New(os.Stderr, game_log.LevelFromString(*logLevel))
	e := engine.New(newBackend(), logger)
	defer e.Close()

	if *patch != "" {
		f, err := os.Open(*patch)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		err = e.LoadPatch(f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else if err := buildDemo(e, *voices, *mode, *period); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	e.Start()
	go func() {
		for ev := range e.Events {
			logger.Infof("node %s playing=%v", ev.Node, ev.Playing)
		}
	}()
	time.Sleep(*dur)
}

// buildDemo wires a trigger to n oscillators walking up a major
// arpeggio from middle C.
func buildDemo(e *engine.Engine, n int, mode string, period float64) error {
	trig, err := e.AddNode("trig")
	if err != nil {
		return err
	}
	steps := []float64{60, 64, 67, 72, 76, 79, 84, 88} // C major, two octaves
	for i := 0; i < n; i++ {
		osc, err := e.AddNode("osc")
		if err != nil {
			return err
		}
		note := steps[i%len(steps)]
		freq := 440 * math.Pow(2, (note-69)/12)
		err = e.SetProps(osc.ID, func(p node.Props) node.Props {
			p["freq"] = freq
			p["wave"] = "triangle"
			return p
		})
		if err != nil {
			return err
		}
		err = e.Connect(
			model.PortRef{Node: trig.ID, Port: engine.TrigPort},
			model.PortRef{Node: osc.ID, Port: "trig"},
		)
		if err != nil {
			return err
		}
	}
	return e.SetProps(trig.ID, func(p node.Props) node.Props {
		p["mode"] = mode
		p["period"] = period
		p["playing"] = true
		return p
	})
}

// Command gen-frames writes synthetic screening visits as a frame stream
// for replay through thermal-screen.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/synth"
)

func main() {
	output := flag.String("o", "sample.tsf", "output path")
	visits := flag.Int("visits", 1, "number of screening visits")
	seed := flag.Int64("seed", 1, "noise seed")
	noRef := flag.Bool("no-ref", false, "omit the thermal reference disk")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	w, err := frame.NewWriter(f, frame.Width, frame.Height)
	if err != nil {
		log.Fatalf("failed to start stream: %v", err)
	}

	gen := synth.NewGenerator(*seed, time.Now())
	if *noRef {
		gen.Disk = nil
	}
	frames := *visits * gen.Period()
	for i := 0; i < frames; i++ {
		if err := w.Write(gen.NextFrame()); err != nil {
			log.Fatalf("failed to write frame %d: %v", i, err)
		}
		if (i+1)%gen.Period() == 0 {
			log.Printf("%d/%d frames", i+1, frames)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("failed to flush %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s", *output)
}

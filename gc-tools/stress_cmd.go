package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/layout"
	"github.com/npillmayer/glyphcache/raster"
	"github.com/thatisuday/commando"
)

type swappedFallbacks struct{}

func (swappedFallbacks) FallbackFonts(primary cache.Font) []cache.Font {
	f := primary
	if primary.Family == "Odd" {
		f.Family = "Even"
	} else {
		f.Family = "Odd"
	}
	return []cache.Font{f}
}

func runStressCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	initTracing(verbose(flags))
	workers := mustFlagInt(flags["workers"], "workers")
	rounds := mustFlagInt(flags["rounds"], "rounds")
	capacity := mustFlagInt(flags["capacity"], "capacity")
	delay := time.Duration(mustFlagInt(flags["delay"], "delay")) * time.Microsecond
	timeout := time.Duration(mustFlagInt(flags["timeout"], "timeout")) * time.Second
	if workers <= 0 || rounds <= 0 || capacity <= 0 {
		fatalf("--workers, --rounds and --capacity must be > 0")
	}
	syn := &raster.Synthetic{
		Coverage: map[string]string{
			"Odd":  "acegikmoqsuwy",
			"Even": "bdfhjlnprtvxz",
		},
		Delay: delay,
	}
	env := layout.Env{
		Cache:     cache.New(syn, cache.WithCapacity(capacity)),
		Fallbacks: swappedFallbacks{},
	}
	var layouts, empty atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			family, text := "Odd", "abcdefghijklmnopqrstuvwxyz"
			if w%2 == 1 {
				family, text = "Even", "zyxwvutsrqponmlkjihgfedcba"
			}
			for i := 0; i < rounds; i++ {
				font := cache.Font{Family: family, Size: float64(8 + (i*7+w)%32)}
				b, err := layout.Measure(env, font, text, layout.Options{})
				if err != nil {
					fatalf("worker %d: %v", w, err)
				}
				empty.Add(int64(b.Empty))
				layouts.Add(1)
			}
		}(w)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		fatalf("%d of %d layouts completed after %v, deadlock suspected",
			layouts.Load(), workers*rounds, timeout)
	}
	st := env.Cache.Stats()
	fmt.Printf("%d layouts in %v, %d empty glyphs\n", layouts.Load(), time.Since(start).Round(time.Millisecond), empty.Load())
	fmt.Printf("cache: entries=%d hits=%d misses=%d evictions=%d destroyed=%d glyph sources=%d\n",
		st.Entries, st.Hits, st.Misses, st.Evictions, st.Destroyed, syn.Sources())
}

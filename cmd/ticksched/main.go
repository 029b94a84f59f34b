package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticksched/internal/app"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config yaml (empty runs on defaults)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// Demo workload: a recurring heartbeat plus a one-shot that removes
	// itself after firing.
	sched := a.Scheduler()
	hb := sched.Create(100, -1, false, func() {
		fmt.Println("heartbeat", time.Now().Format(time.RFC3339))
	})
	sched.BeginProfiling(hb)
	sched.Create(500, 0, true, func() {
		fmt.Println("one-shot fired")
	})

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)
}

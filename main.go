package main

import (
	"flag"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"

	core "github.com/Gthulhu/goland_uthread/uthread_core"
	"github.com/Gthulhu/goland_uthread/util"
)

var (
	nrKthreads  = flag.Int("kthreads", 1, "size of the kernel thread pool")
	nrUthreads  = flag.Int("uthreads", 6, "number of uthreads to spawn")
	samplerName = flag.String("sampler", "rusage", "cpu usage sampler: rusage, procstat or gopsutil")
	cpuList     = flag.String("cpus", "", "cpu affinity of the kernel threads, e.g. 0-3,6")
	lockMemory  = flag.Bool("mlock", false, "lock the process memory")
	verbose     = flag.Bool("v", false, "log scheduler events")
	workRounds  = flag.Int("work", 100, "busy loop rounds for even uthreads")
)

type demo struct {
	mu       sync.Mutex
	nThreads int
	myID     int
}

func busyLoop(rounds int) float64 {
	var acc float64
	for j := 0; j < rounds; j++ {
		for i := 0; i < 1000000; i++ {
			acc += math.Sqrt(float64(i) * 119.89)
		}
	}
	return acc
}

func (d *demo) doSomething() {
	d.mu.Lock()
	id := d.myID
	d.myID++
	log.Printf("This is ult %d", id)

	if d.nThreads < *nrUthreads {
		d.nThreads++
		d.mu.Unlock()
		core.Create(d.doSomething)
	} else {
		d.mu.Unlock()
	}

	if id%2 == 0 {
		busyLoop(*workRounds)
	}
	log.Printf("This is ult %d again", id)

	core.Yield()

	_, runningTime, _ := core.System().Self()
	log.Printf("This is ult %d once more (running time %v)", id, runningTime)

	if id%2 == 0 {
		busyLoop(*workRounds)
	}
	log.Printf("This is ult %d exit", id)

	core.Exit()
}

func main() {
	flag.Parse()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	sampler, err := core.NewSampler(*samplerName)
	if err != nil {
		log.Panicf("NewSampler failed: %v", err)
	}

	cpus, err := util.ParseCPUList(*cpuList)
	if err != nil {
		log.Panicf("ParseCPUList failed: %v", err)
	}
	if len(cpus) > 0 {
		online, err := util.OnlineCPUs()
		if err != nil {
			log.Panicf("OnlineCPUs failed: %v", err)
		}
		if cpu, ok := util.SubsetOf(cpus, online); !ok {
			log.Panicf("cpu %d is not online (online: %v)", cpu, online)
		}
	}

	core.Setup(core.Config{
		MaxKthreads: *nrKthreads,
		Sampler:     sampler,
		CPUs:        cpus,
		LockMemory:  *lockMemory,
		Logger:      log.StandardLogger(),
	})
	log.Printf("pid: %v, kthreads: %v, uthreads: %v", os.Getpid(), *nrKthreads, *nrUthreads)

	d := &demo{nThreads: 1}
	core.Create(d.doSomething)

	drained := make(chan struct{})
	go func() {
		core.Exit()
		close(drained)
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-drained:
		log.Println("all uthreads exited")
	case <-signalChan:
		log.Println("receive os signal")
	}

	log.Printf("stats: %v", core.System().Stats())
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if times, err := p.Times(); err == nil {
			log.Printf("process cpu: user %.3fs, system %.3fs", times.User, times.System)
		}
		if n, err := p.NumThreads(); err == nil {
			log.Printf("process threads: %d", n)
		}
	}
	log.Println("scheduler exit")
}

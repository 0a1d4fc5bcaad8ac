// Package stress drives continuous filesystem load against ODF backed volumes
// while a watcher keeps an eye on ceph health. Failures never abort the run;
// they are collected and reported once the runner stops.
package stress

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
)

// Settings configures a stress Runner.
type Settings struct {
	// Writers is the number of concurrent writer goroutines.
	Writers int
	// WriteInterval is the pause between writes of one writer.
	WriteInterval time.Duration
	// HealthInterval is the pause between health checks. Zero disables the watcher.
	HealthInterval time.Duration
	// Write performs one write on behalf of the given writer.
	Write func(writerID int) error
	// CheckHealth verifies the storage backend. Required when HealthInterval is set.
	CheckHealth func() error
}

// Runner owns the writer and watcher goroutines of one stress run.
type Runner struct {
	settings Settings
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	errsMutex sync.Mutex
	errs      []error
}

// NewRunner validates the settings and returns an idle Runner.
func NewRunner(settings Settings) (*Runner, error) {
	if settings.Writers < 1 {
		return nil, fmt.Errorf("stress runner needs at least one writer")
	}

	if settings.Write == nil {
		return nil, fmt.Errorf("stress runner 'Write' cannot be nil")
	}

	if settings.HealthInterval > 0 && settings.CheckHealth == nil {
		return nil, fmt.Errorf("stress runner 'CheckHealth' cannot be nil when a health interval is set")
	}

	return &Runner{settings: settings, stopCh: make(chan struct{})}, nil
}

// Start launches the writer goroutines and, when configured, the health watcher.
func (runner *Runner) Start() {
	glog.V(90).Infof("Starting stress run with %d writers", runner.settings.Writers)

	for writerID := 0; writerID < runner.settings.Writers; writerID++ {
		runner.wg.Add(1)

		go runner.writeLoop(writerID)
	}

	if runner.settings.HealthInterval > 0 {
		runner.wg.Add(1)

		go runner.watchLoop()
	}
}

// Stop signals every goroutine to finish and waits for them. Safe to call
// more than once.
func (runner *Runner) Stop() {
	runner.stopOnce.Do(func() {
		glog.V(90).Info("Stopping stress run")

		close(runner.stopCh)
	})

	runner.wg.Wait()
}

// Errs returns the failures collected during the run. Call after Stop.
func (runner *Runner) Errs() []error {
	runner.errsMutex.Lock()
	defer runner.errsMutex.Unlock()

	errs := make([]error, len(runner.errs))
	copy(errs, runner.errs)

	return errs
}

func (runner *Runner) writeLoop(writerID int) {
	defer runner.wg.Done()

	for {
		select {
		case <-runner.stopCh:
			return
		default:
		}

		err := runner.settings.Write(writerID)
		if err != nil {
			runner.recordErr(fmt.Errorf("writer %d: %w", writerID, err))
		}

		select {
		case <-runner.stopCh:
			return
		case <-time.After(runner.settings.WriteInterval):
		}
	}
}

func (runner *Runner) watchLoop() {
	defer runner.wg.Done()

	for {
		select {
		case <-runner.stopCh:
			return
		case <-time.After(runner.settings.HealthInterval):
		}

		err := runner.settings.CheckHealth()
		if err != nil {
			runner.recordErr(fmt.Errorf("health watcher: %w", err))
		}
	}
}

func (runner *Runner) recordErr(err error) {
	glog.V(90).Infof("Stress run recorded failure: %v", err)

	runner.errsMutex.Lock()
	defer runner.errsMutex.Unlock()

	runner.errs = append(runner.errs, err)
}

// PodWriter returns a Write function running dd inside the given pod, each
// writer owning one file under the mounted volume path.
func PodWriter(workloadPod *pod.Builder, mountPath string, blockCount int) func(int) error {
	return func(writerID int) error {
		command := fmt.Sprintf(
			"dd if=/dev/urandom of=%s/stress-%d.bin bs=1M count=%d conv=fsync", mountPath, writerID, blockCount)

		_, err := workloadPod.ExecCommand([]string{"sh", "-c", command})

		return err
	}
}

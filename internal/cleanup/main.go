/*
Cleanup removes leftover resources that failed or aborted test runs leave behind. It deletes
test namespaces matching the configured label and, on AWS, terminates EC2 instances whose
cluster tag matches the given prefix.

Upon successful cleanup the exit code is 0. If any error occurs it will be logged to stderr
and the exit code will be 1.

Usage:

	cleanup [flags]

The flags are:

	-h, -help
		Print this help message

	-d, -dry-run
		Print what would be removed without deleting anything

	-p, -prefix string
		Cluster name prefix whose tagged EC2 instances get terminated. Leave blank to skip EC2 cleanup

	-r, -region string
		AWS region to clean up. Uses the default credential chain region if left blank

	-k, -kubeconfig string
		Path to the kubeconfig. Uses the KUBECONFIG env var if left blank

	-j, -parallel int
		Number of resources removed concurrently

	-v int
		Log level verbosity for glog. Use 100 for logging all messages or leave blank for none
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
)

var (
	help       bool
	dryRun     bool
	prefix     string
	region     string
	kubeconfig string
	parallel   int
)

//nolint:gochecknoinits // This is a main package so init is fine.
func init() {
	const (
		helpUsage       = "Print this help message"
		dryRunUsage     = "Print what would be removed without deleting anything"
		prefixUsage     = "Cluster name prefix whose tagged EC2 instances get terminated. " +
			"Leave blank to skip EC2 cleanup"
		regionUsage     = "AWS region to clean up. Uses the default credential chain region if left blank"
		kubeconfigUsage = "Path to the kubeconfig. Uses the KUBECONFIG env var if left blank"
		parallelUsage   = "Number of resources removed concurrently"

		defaultHelp       = false
		defaultDryRun     = false
		defaultPrefix     = ""
		defaultRegion     = ""
		defaultKubeconfig = ""
		defaultParallel   = 8

		shorthand = " (shorthand)"
	)

	flag.BoolVar(&help, "help", defaultHelp, helpUsage)
	flag.BoolVar(&help, "h", defaultHelp, helpUsage+shorthand)

	flag.BoolVar(&dryRun, "dry-run", defaultDryRun, dryRunUsage)
	flag.BoolVar(&dryRun, "d", defaultDryRun, dryRunUsage+shorthand)

	flag.StringVar(&prefix, "prefix", defaultPrefix, prefixUsage)
	flag.StringVar(&prefix, "p", defaultPrefix, prefixUsage+shorthand)

	flag.StringVar(&region, "region", defaultRegion, regionUsage)
	flag.StringVar(&region, "r", defaultRegion, regionUsage+shorthand)

	flag.StringVar(&kubeconfig, "kubeconfig", defaultKubeconfig, kubeconfigUsage)
	flag.StringVar(&kubeconfig, "k", defaultKubeconfig, kubeconfigUsage+shorthand)

	flag.IntVar(&parallel, "parallel", defaultParallel, parallelUsage)
	flag.IntVar(&parallel, "j", defaultParallel, parallelUsage+shorthand)
}

func main() {
	flag.Parse()

	if help {
		flag.Usage()

		return
	}

	if parallel < 1 {
		parallel = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()

	err := run(ctx)
	if err != nil {
		glog.Errorf("Cleanup failed: %v", err)
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}

	glog.V(100).Infof("Cleanup finished in %v", time.Since(start))
}

// run executes both cleanup phases regardless of individual failures and
// reports everything that went wrong at once.
func run(ctx context.Context) error {
	var errs []error

	err := cleanupNamespaces(ctx)
	if err != nil {
		glog.Errorf("Namespace cleanup failed: %v", err)
		errs = append(errs, err)
	}

	if prefix == "" {
		glog.V(100).Info("No cluster prefix given, skipping EC2 cleanup")

		return errors.Join(errs...)
	}

	err = cleanupInstances(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

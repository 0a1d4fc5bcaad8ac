package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/pkg/namespace"
	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// cleanupNamespaces deletes every namespace carrying the test ownership label,
// bounded by the parallel flag.
func cleanupNamespaces(ctx context.Context) error {
	apiClient := clients.New(kubeconfig)
	if apiClient == nil {
		return fmt.Errorf("failed to build API client, check the kubeconfig")
	}

	namespaceList, err := apiClient.Namespaces().List(ctx, metav1.ListOptions{
		LabelSelector: testNamespaceLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to list test namespaces: %w", err)
	}

	var names []string
	for _, foundNamespace := range namespaceList.Items {
		names = append(names, foundNamespace.Name)
	}

	deletable := deletableNamespaces(names)
	if len(deletable) == 0 {
		glog.V(100).Info("No leftover test namespaces found")

		return nil
	}

	glog.V(100).Infof("Deleting %d leftover test namespaces", len(deletable))

	if dryRun {
		for _, name := range deletable {
			fmt.Printf("would delete namespace %s\n", name)
		}

		return nil
	}

	var (
		mutex sync.Mutex
		errs  []error
	)

	var errGroup errgroup.Group
	errGroup.SetLimit(parallel)

	for _, name := range deletable {
		deletedName := name

		errGroup.Go(func() error {
			glog.V(100).Infof("Deleting namespace %s", deletedName)

			err := namespace.NewBuilder(apiClient, deletedName).Delete()
			if err != nil {
				mutex.Lock()
				errs = append(errs, fmt.Errorf("failed to delete namespace %s: %w", deletedName, err))
				mutex.Unlock()
			}

			return nil
		})
	}

	_ = errGroup.Wait()

	return errors.Join(errs...)
}

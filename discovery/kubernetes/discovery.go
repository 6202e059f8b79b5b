// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package kubernetes provides a discovery provider listing the ready pods
// labelled with the actor system and application names.
package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/internal/validation"
	"github.com/tochemey/typedakt/log"
)

// Config represents the kubernetes provider configuration
type Config struct {
	// Namespace is the pods namespace
	Namespace string
	// ActorSystemName is matched against the app.kubernetes.io/part-of label
	ActorSystemName string
	// ApplicationName is matched against the app.kubernetes.io/name label
	ApplicationName string
	// GossipPortName is the name of the container port used for gossip
	GossipPortName string
	// PodIP is the address of this pod. It is excluded from the peers
	PodIP string
	// Timeout bounds the pods listing. It defaults to 5s
	Timeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Namespace", c.Namespace)).
		AddValidator(validation.NewEmptyStringValidator("ActorSystemName", c.ActorSystemName)).
		AddValidator(validation.NewEmptyStringValidator("ApplicationName", c.ApplicationName)).
		AddValidator(validation.NewEmptyStringValidator("GossipPortName", c.GossipPortName)).
		Validate()
}

// Discovery represents the kubernetes discovery
type Discovery struct {
	config *Config
	client kubernetes.Interface
	mu     sync.Mutex

	initialized *atomic.Bool
	logger      log.Logger
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the kubernetes discovery provider
func NewDiscovery(config *Config, opts ...Option) *Discovery {
	if config == nil {
		config = new(Config)
	}

	d := &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
		logger:      log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(d)
	}
	return d
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "kubernetes"
}

// Initialize creates the in-cluster client when none was given
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if err := d.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	if d.config.Timeout <= 0 {
		d.config.Timeout = 5 * time.Second
	}

	if d.client == nil {
		config, err := rest.InClusterConfig()
		if err != nil {
			return fmt.Errorf("failed to get the in-cluster config: %w", err)
		}

		client, err := kubernetes.NewForConfig(config)
		if err != nil {
			return fmt.Errorf("failed to create the kubernetes client: %w", err)
		}
		d.client = client
	}

	d.initialized.Store(true)
	return nil
}

// Register is a no-op since the pods are managed by kubernetes
func (d *Discovery) Register() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// Deregister is a no-op since the pods are managed by kubernetes
func (d *Discovery) Deregister() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// DiscoverPeers returns the gossip addresses of the running and ready pods
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	podLabels := map[string]string{
		"app.kubernetes.io/part-of": d.config.ActorSystemName,
		"app.kubernetes.io/name":    d.config.ApplicationName,
	}

	pods, err := d.client.CoreV1().Pods(d.config.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labels.SelectorFromSet(podLabels).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list the kubernetes pods: %w", err)
	}

	peers := goset.NewSet[string]()
	for i := range pods.Items {
		pod := &pods.Items[i]
		if !isReady(pod) || pod.Status.PodIP == d.config.PodIP {
			continue
		}

		address, ok := d.gossipAddress(pod)
		if !ok {
			d.logger.Warnf("pod %s has no container port named %s", pod.GetName(), d.config.GossipPortName)
			continue
		}
		peers.Add(address)
	}
	return peers.ToSlice(), nil
}

// Close resets the provider
func (d *Discovery) Close() error {
	d.initialized.Store(false)
	return nil
}

func (d *Discovery) gossipAddress(pod *corev1.Pod) (string, bool) {
	if pod.Status.PodIP == "" {
		return "", false
	}

	for _, container := range pod.Spec.Containers {
		for _, port := range container.Ports {
			if port.Name == d.config.GossipPortName {
				return net.JoinHostPort(pod.Status.PodIP, strconv.Itoa(int(port.ContainerPort))), true
			}
		}
	}
	return "", false
}

// isReady accepts running pods whose Ready condition, when set, is true
func isReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady && condition.Status != corev1.ConditionTrue {
			return false
		}
	}
	return true
}

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

package kubernetes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	testclient "k8s.io/client-go/kubernetes/fake"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/log"
)

const (
	namespace       = "test"
	actorSystemName = "AccountsSystem"
	appName         = "accounts"
	gossipPortName  = "gossip-port"
)

func newPod(name, ip string, phase corev1.PodPhase, ready corev1.ConditionStatus, system string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/part-of": system,
				"app.kubernetes.io/name":    appName,
			},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{
					Ports: []corev1.ContainerPort{
						{Name: gossipPortName, ContainerPort: 3379},
						{Name: "metrics", ContainerPort: 9102},
					},
				},
			},
		},
		Status: corev1.PodStatus{
			Phase: phase,
			PodIP: ip,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: ready},
			},
		},
	}
}

func newConfig() *Config {
	return &Config{
		Namespace:       namespace,
		ActorSystemName: actorSystemName,
		ApplicationName: appName,
		GossipPortName:  gossipPortName,
		PodIP:           "10.0.0.23",
	}
}

func TestDiscovery(t *testing.T) {
	t.Run("With a new instance", func(t *testing.T) {
		provider := NewDiscovery(nil)
		require.NotNil(t, provider)
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
		assert.Equal(t, "kubernetes", provider.ID())
	})
	t.Run("With invalid configuration", func(t *testing.T) {
		config := newConfig()
		config.GossipPortName = ""
		provider := NewDiscovery(config, WithClient(testclient.NewClientset()))
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)
	})
	t.Run("With operations before Initialize", func(t *testing.T) {
		provider := NewDiscovery(newConfig())
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotInitialized)
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)
	})
	t.Run("With Initialize outside a cluster", func(t *testing.T) {
		provider := NewDiscovery(newConfig())
		assert.Error(t, provider.Initialize())
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		pods := []runtime.Object{
			newPod("self", "10.0.0.23", corev1.PodRunning, corev1.ConditionTrue, actorSystemName),
			newPod("pod1", "10.0.0.24", corev1.PodRunning, corev1.ConditionTrue, actorSystemName),
			newPod("pod2", "10.0.0.25", corev1.PodRunning, corev1.ConditionTrue, actorSystemName),
			newPod("pending", "10.0.0.26", corev1.PodPending, corev1.ConditionTrue, actorSystemName),
			newPod("unready", "10.0.0.27", corev1.PodRunning, corev1.ConditionFalse, actorSystemName),
			newPod("other", "10.0.0.28", corev1.PodRunning, corev1.ConditionTrue, "OtherSystem"),
		}

		provider := NewDiscovery(newConfig(),
			WithClient(testclient.NewClientset(pods...)),
			WithLogger(log.DiscardLogger))

		require.NoError(t, provider.Initialize())
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrAlreadyInitialized)
		require.NoError(t, provider.Register())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"10.0.0.24:3379", "10.0.0.25:3379"}, peers)

		require.NoError(t, provider.Deregister())
		require.NoError(t, provider.Close())
	})
}

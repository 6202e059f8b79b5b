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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("With all errors", func(t *testing.T) {
		err := New().
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "port is invalid").
			AddAssertion(true, "never").
			Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "port is invalid").
			Validate()
		require.EqualError(t, err, "the [name] is required")
	})
	t.Run("With no violations", func(t *testing.T) {
		assert.NoError(t, New().AddValidator(NewEmptyStringValidator("name", "alarm")).Validate())
	})
}

func TestPatternValidator(t *testing.T) {
	custom := errors.New("bad name")
	pattern := "^[a-zA-Z0-9][a-zA-Z0-9-_]*$"
	assert.NoError(t, NewPatternValidator(pattern, "node-1", custom).Validate())
	assert.ErrorIs(t, NewPatternValidator(pattern, "-node", custom).Validate(), custom)
	assert.Error(t, NewPatternValidator(pattern, "", nil).Validate())
}

func TestTCPAddressValidator(t *testing.T) {
	testCases := []struct {
		address string
		valid   bool
	}{
		{"127.0.0.1:3322", true},
		{"localhost:0", true},
		{"127.0.0.1", false},
		{":3322", false},
		{"127.0.0.1:abc", false},
		{"127.0.0.1:70000", false},
		{"127.0.0.1:-1", false},
	}
	for _, tc := range testCases {
		t.Run(tc.address, func(t *testing.T) {
			err := NewTCPAddressValidator(tc.address).Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

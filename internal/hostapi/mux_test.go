// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package hostapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/pkg/errutil"
)

type echoIn struct {
	Text string `json:"text"`
}

func TestMux_SendSyncDecodesAndEncodes(t *testing.T) {
	m := hostapi.NewMux()
	hostapi.HandleFunc(m, "echo", func(_ context.Context, in echoIn) (map[string]string, error) {
		return map[string]string{"echo": in.Text}, nil
	})

	raw, err := m.SendSync(context.Background(), hostapi.Request{Type: "echo", Data: echoIn{Text: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"hi"}`, string(raw))
}

func TestMux_HandlerErrorIsReturned(t *testing.T) {
	m := hostapi.NewMux()
	boom := errors.New("boom")
	m.Handle("fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, boom
	})

	_, err := m.SendSync(context.Background(), hostapi.Request{Type: "fail"})
	assert.ErrorIs(t, err, boom)
}

func TestMux_UnknownType(t *testing.T) {
	_, err := hostapi.NewMux().SendSync(context.Background(), hostapi.Request{Type: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, hostapi.ErrNoHandler)
	errutil.AssertErrorCode(t, err, hostapi.CodeNoHandler)
}

func TestMux_BadRequestData(t *testing.T) {
	m := hostapi.NewMux()
	hostapi.HandleFunc(m, "echo", func(_ context.Context, in echoIn) (string, error) {
		return in.Text, nil
	})

	_, err := m.SendSync(context.Background(), hostapi.Request{Type: "echo", Data: []int{1}})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, hostapi.CodeHostCallFailed)
}

func TestMux_SendDropsResultAndError(t *testing.T) {
	m := hostapi.NewMux()
	called := 0
	m.Handle("notify", func(context.Context, json.RawMessage) (any, error) {
		called++
		return nil, errors.New("ignored")
	})

	m.Send(hostapi.Request{Type: "notify"})
	m.Send(hostapi.Request{Type: "unbound"})

	assert.Equal(t, 1, called)
}

func TestMux_HandleReplaces(t *testing.T) {
	m := hostapi.NewMux()
	m.Handle("x", func(context.Context, json.RawMessage) (any, error) { return 1, nil })
	m.Handle("x", func(context.Context, json.RawMessage) (any, error) { return 2, nil })

	raw, err := m.SendSync(context.Background(), hostapi.Request{Type: "x"})
	require.NoError(t, err)
	assert.Equal(t, "2", string(raw))
	assert.Equal(t, []string{"x"}, m.Types())
}

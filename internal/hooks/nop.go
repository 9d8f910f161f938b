// Package hooks provides default hook implementations.
package hooks

import (
	"context"

	"github.com/arloliu/robotcmd/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.RobotCommand) error                                 = (*NopHooks)(nil).OnNewData
	_ func(context.Context, types.SubscriptionConfig, types.SubscriptionConfig) error = (*NopHooks)(nil).OnRecreate
	_ func(context.Context, types.State, types.State) error                           = (*NopHooks)(nil).OnStateChanged
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnNewData:      h.OnNewData,
		OnRecreate:     h.OnRecreate,
		OnStateChanged: h.OnStateChanged,
	}
}

// Fill returns h with every nil callback replaced by its no-op counterpart.
func Fill(h types.Hooks) types.Hooks {
	nop := NewNop()
	if h.OnNewData == nil {
		h.OnNewData = nop.OnNewData
	}
	if h.OnRecreate == nil {
		h.OnRecreate = nop.OnRecreate
	}
	if h.OnStateChanged == nil {
		h.OnStateChanged = nop.OnStateChanged
	}

	return h
}

// OnNewData is a no-op implementation.
func (h *NopHooks) OnNewData(ctx context.Context, cmd types.RobotCommand) error {
	return nil
}

// OnRecreate is a no-op implementation.
func (h *NopHooks) OnRecreate(ctx context.Context, from, to types.SubscriptionConfig) error {
	return nil
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(ctx context.Context, from, to types.State) error {
	return nil
}

package types

import "context"

// Hooks defines callbacks for Controller events.
//
// All hooks are optional. The controller is driven by a single-threaded host
// scheduler, so hooks run inline on the polling goroutine and must return
// quickly. Hook errors are logged but don't fail the poll.
//
// Example:
//
//	hooks := &robotcmd.Hooks{
//	    OnNewData: func(ctx context.Context, cmd robotcmd.RobotCommand) error {
//	        select {
//	        case cmdCh <- cmd:
//	            return nil
//	        default:
//	            return errors.New("command channel full")
//	        }
//	    },
//	}
type Hooks struct {
	// OnNewData is called once for every poll that received and decoded a message.
	OnNewData func(ctx context.Context, cmd RobotCommand) error

	// OnRecreate is called before the subscription is torn down because the
	// requested configuration differs from the applied one.
	OnRecreate func(ctx context.Context, from, to SubscriptionConfig) error

	// OnStateChanged is called when the controller state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error
}

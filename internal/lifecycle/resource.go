package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/types"
)

// Teardown stages reported to metrics.
const (
	StageSubscription = "subscription"
	StageNode         = "node"
	StageContext      = "context"
)

// resource is a node together with its single subscription.
//
// It exists only fully constructed: newResource either returns both handles or
// releases whatever it created and returns an error.
type resource struct {
	node transport.Node
	sub  transport.Subscription
	cfg  types.SubscriptionConfig
	qos  types.QoSPolicy
}

func newResource(
	ctx context.Context,
	session transport.Session,
	nodeName string,
	cfg types.SubscriptionConfig,
	qos types.QoSPolicy,
) (*resource, error) {
	node, err := session.NewNode(ctx, nodeName, cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("create node %q in namespace %q: %w", nodeName, cfg.Namespace, err)
	}

	sub, err := node.Subscribe(ctx, cfg.Topic, qos)
	if err != nil {
		if cerr := node.Close(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("release node: %w", cerr))
		}

		return nil, fmt.Errorf("subscribe %q: %w", cfg.Topic, err)
	}

	return &resource{node: node, sub: sub, cfg: cfg, qos: qos}, nil
}

// stageError is one failed finalize step.
type stageError struct {
	stage string
	err   error
}

// close finalizes the subscription, then the node. Both steps always run.
func (r *resource) close(ctx context.Context) []stageError {
	var failures []stageError

	if err := r.sub.Close(); err != nil {
		failures = append(failures, stageError{stage: StageSubscription, err: err})
	}

	if err := r.node.Close(ctx); err != nil {
		failures = append(failures, stageError{stage: StageNode, err: err})
	}

	return failures
}

// Package robotcmd provides a reconfigurable subscriber for robot command
// messages, driven one non-blocking poll per host tick.
//
// A Controller owns one node and one subscription. On every Poll the host
// passes the subscription inputs (topic, namespace, QoS profile, queue size and
// context id). When any of them differs from what the live subscription was
// built from, the subscription is torn down and rebuilt before polling. At
// most one message is taken per Poll and decoded into flat Outputs: scalar
// yaw, gripper and timestamp values, chassis linear and angular velocity
// vectors, and the arm joint names with their position, velocity and effort
// commands.
//
// # Quick Start
//
//	cfg := robotcmd.DefaultConfig()
//	cfg.Transport.URL = "nats://127.0.0.1:4222"
//
//	registry, err := robotcmd.NewRegistry(cfg.Transport, logger, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctrl, err := robotcmd.NewController(&cfg, registry, robotcmd.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Release(context.Background())
//
//	in := robotcmd.SubscriptionConfig{
//	    Topic:      "robot_cmd",
//	    Namespace:  "robot1",
//	    QoSProfile: "default",
//	    QueueDepth: 10,
//	}
//
//	for range ticker.C {
//	    out, err := ctrl.Poll(ctx, in)
//	    if err != nil {
//	        // subscription could not be created; retried on the next tick
//	        continue
//	    }
//	    if out.ExecOut {
//	        apply(out.RobotCommand)
//	    }
//	}
//
// # Lifecycle
//
// The controller moves through three states:
//
//	Idle → Active → (Reset) → Idle → Active → ... → Released
//
// Reset zeroes the outputs and releases the subscription but keeps the shared
// transport context. Release is terminal.
//
// # Transports
//
// Sessions come from a transport.Backend and are shared through a
// transport.Registry, keyed by context id and reference counted. Two backends
// ship with the module: transport/natsbus (NATS core, with JetStream for
// reliable and transient-local profiles when a stream is configured) and
// transport/loopback (in-process, for tests and local runs).
//
// See cmd/robotcmd-sub for a complete subscriber process.
package robotcmd

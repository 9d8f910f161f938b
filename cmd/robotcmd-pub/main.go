// Command robotcmd-pub publishes synthetic robot commands to a NATS subject.
//
// Each message carries a slowly rotating chassis twist and an arm trajectory
// whose joint positions follow a sine wave, which makes decoded output easy to
// eyeball from robotcmd-sub.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/robotcmd/codec"
	"github.com/arloliu/robotcmd/internal/logging"
	"github.com/arloliu/robotcmd/transport"
	"github.com/arloliu/robotcmd/transport/natsbus"
	"github.com/arloliu/robotcmd/types"
)

func main() {
	url := flag.String("url", natsbus.DefaultURL, "NATS server URL")
	prefix := flag.String("prefix", natsbus.DefaultSubjectPrefix, "Subject prefix")
	topic := flag.String("topic", "/robot1/robot_cmd", "Fully qualified topic name")
	codecName := flag.String("codec", codec.NameCBOR, "Wire codec (cbor or json)")
	rate := flag.Duration("interval", 100*time.Millisecond, "Publish interval")
	joints := flag.Int("joints", 6, "Number of arm joints")
	count := flag.Int("count", 0, "Messages to publish (0 = until interrupted)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(os.Stderr, "text", *logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	c, err := codec.ByName(*codecName)
	if err != nil {
		logger.Fatal("invalid codec", "error", err)
	}

	resolved, err := transport.ResolveTopic("", *topic)
	if err != nil {
		logger.Fatal("invalid topic", "topic", *topic, "error", err)
	}
	subject := natsbus.Subject(*prefix, resolved)

	nc, err := nats.Connect(*url, nats.Name("robotcmd-pub"))
	if err != nil {
		logger.Fatal("failed to connect to NATS", "url", *url, "error", err)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("publishing", "subject", subject, "codec", c.Name(), "interval", *rate, "joints", *joints)

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	start := time.Now()
	for seq := 0; *count == 0 || seq < *count; seq++ {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cmd := syntheticCmd(now, now.Sub(start), *joints)

			data, err := c.Marshal(cmd)
			if err != nil {
				logger.Fatal("failed to encode command", "error", err)
			}
			if err := nc.Publish(subject, data); err != nil {
				logger.Error("publish failed", "subject", subject, "error", err)
				continue
			}
			logger.Debug("published", "seq", seq, "bytes", len(data), "cmd", summary(cmd))
		}
	}

	if err := nc.FlushTimeout(2 * time.Second); err != nil {
		logger.Warn("flush failed", "error", err)
	}
	logger.Info("done", "messages", *count)
}

func syntheticCmd(now time.Time, elapsed time.Duration, joints int) *types.RobotCmd {
	phase := elapsed.Seconds()

	names := make([]string, joints)
	positions := make([]float64, joints)
	velocities := make([]float64, joints)
	for i := range joints {
		names[i] = "arm_joint_" + strconv.Itoa(i+1)
		offset := float64(i) * math.Pi / float64(max(joints, 1))
		positions[i] = math.Sin(phase + offset)
		velocities[i] = math.Cos(phase + offset)
	}

	return &types.RobotCmd{
		Header: types.Header{
			Stamp: types.Time{
				Sec:     int32(now.Unix()),       //nolint:gosec // valid until 2038
				Nanosec: uint32(now.Nanosecond()), //nolint:gosec // always < 1e9
			},
			FrameID: "base_link",
		},
		Yaw:        float32(math.Mod(phase, 2*math.Pi)),
		GripperCmd: float32((math.Sin(phase/2) + 1) / 2),
		ChassisCmd: types.Twist{
			Linear:  types.Vector3{X: 0.5 * math.Cos(phase/4)},
			Angular: types.Vector3{Z: 0.2 * math.Sin(phase/4)},
		},
		ArmCmd: types.JointTrajectory{
			Header:     types.Header{FrameID: "arm_base"},
			JointNames: names,
			Points: []types.JointTrajectoryPoint{{
				Positions:     positions,
				Velocities:    velocities,
				TimeFromStart: types.Time{Nanosec: uint32(100 * time.Millisecond)},
			}},
		},
	}
}

// summary renders a one-line description for debug output.
func summary(cmd *types.RobotCmd) string {
	return fmt.Sprintf("yaw=%.3f gripper=%.3f joints=%d", cmd.Yaw, cmd.GripperCmd, len(cmd.ArmCmd.JointNames))
}

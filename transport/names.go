package transport

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arloliu/robotcmd/types"
)

// segmentPattern matches one token of a graph name.
var segmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ResolveNamespace normalizes namespace to an absolute form.
//
// An empty namespace (or "/") resolves to "/"; otherwise the result has a
// single leading slash and no trailing slash.
func ResolveNamespace(namespace string) (string, error) {
	trimmed := strings.Trim(namespace, "/")
	if trimmed == "" {
		return "/", nil
	}

	if err := validateSegments(trimmed); err != nil {
		return "", fmt.Errorf("namespace %q: %w", namespace, err)
	}

	return "/" + trimmed, nil
}

// ResolveTopic resolves topic against namespace.
//
// Absolute topics (leading "/") ignore namespace. Relative topics are placed
// under the resolved namespace.
//
// Example:
//
//	ResolveTopic("robot1", "robot_cmd")   // "/robot1/robot_cmd"
//	ResolveTopic("robot1", "/robot_cmd")  // "/robot_cmd"
//	ResolveTopic("", "robot_cmd")         // "/robot_cmd"
func ResolveTopic(namespace string, topic string) (string, error) {
	trimmed := strings.Trim(topic, "/")
	if trimmed == "" {
		return "", fmt.Errorf("topic %q: %w", topic, types.ErrInvalidName)
	}

	if err := validateSegments(trimmed); err != nil {
		return "", fmt.Errorf("topic %q: %w", topic, err)
	}

	if strings.HasPrefix(topic, "/") {
		return "/" + trimmed, nil
	}

	ns, err := ResolveNamespace(namespace)
	if err != nil {
		return "", err
	}

	return join(ns, trimmed), nil
}

// NodeFQN returns the fully qualified name of node name inside namespace.
func NodeFQN(namespace string, name string) (string, error) {
	if !segmentPattern.MatchString(name) {
		return "", fmt.Errorf("node name %q: %w", name, types.ErrInvalidName)
	}

	ns, err := ResolveNamespace(namespace)
	if err != nil {
		return "", err
	}

	return join(ns, name), nil
}

func join(ns string, rel string) string {
	if ns == "/" {
		return "/" + rel
	}

	return ns + "/" + rel
}

func validateSegments(name string) error {
	for seg := range strings.SplitSeq(name, "/") {
		if !segmentPattern.MatchString(seg) {
			return types.ErrInvalidName
		}
	}

	return nil
}

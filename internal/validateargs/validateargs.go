package validateargs

import (
	"fmt"
	"strings"
)

// secretArgs carry credentials that end up in the process list when passed
// on the command line instead of the config file or the environment
var secretArgs = []string{"-sentry-dsn"}

// Secrets checks if params carrying secrets have been passed as arguments
func Secrets(args []string) error {
	var found []string

	for _, secretArg := range secretArgs {
		for _, arg := range args {
			if isFlag(arg, secretArg) {
				found = append(found, secretArg)
				break
			}
		}
	}

	if len(found) > 0 {
		return fmt.Errorf("%s should not be passed as a command line argument, use -config or the environment", strings.Join(found, ", "))
	}

	return nil
}

// isFlag matches -name, --name, -name=value and --name=value
func isFlag(arg, name string) bool {
	arg = strings.TrimLeft(arg, "-")
	name = strings.TrimLeft(name, "-")

	return arg == name || strings.HasPrefix(arg, name+"=")
}

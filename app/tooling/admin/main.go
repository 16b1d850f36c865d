// This program performs administrative tasks for contract deployments.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/dapp/app/tooling/admin/commands"
	"github.com/ardanlabs/dapp/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("admin", "version", build, "args", os.Args[1:])

	return processCommands(os.Args)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: admin deployments [catalog] | abi <variant>")
	}

	switch args[1] {
	case "deployments":
		if err := commands.Deployments(os.Stdout, args); err != nil {
			return fmt.Errorf("listing deployments: %w", err)
		}

	case "abi":
		if err := commands.ABI(os.Stdout, args); err != nil {
			return fmt.Errorf("printing abi: %w", err)
		}

	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}

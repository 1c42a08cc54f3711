package wpdeploy

import (
	"context"
	"strings"

	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"
)

// runHook invokes an operator command with path appended as its last
// argument. Failures are logged and otherwise ignored.
func (d *Deployer) runHook(ctx context.Context, name, command, path string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	logger := log.WithFields(log.Fields{"hook": name, "path": path})

	argv, err := shlex.Split(command)
	if err != nil {
		logger.Warnf("could not parse hook command %q: %v", command, err)
		return
	}
	if len(argv) == 0 {
		return
	}

	logger.Infof("running %s hook", name)
	cmd := &Command{Name: argv[0], Args: append(argv[1:], path)}
	if err := d.runner.Run(ctx, cmd); err != nil {
		logger.Warnf("%s hook failed: %v", name, err)
	}
}

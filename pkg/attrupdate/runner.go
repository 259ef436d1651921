package attrupdate

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes the external NCO tools that edit NetCDF
// metadata in place. Injectable so tests can capture commands instead of
// needing nco installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands through the operating system.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ncatted overwrites one attribute. scope is "global" or a variable
// name; typeChar is the NCO type code ("c" for text, "s" for short).
func ncatted(ctx context.Context, run CommandRunner, path, attr, scope, typeChar, value string) error {
	return run.Run(ctx, "ncatted",
		"-h", "-a", fmt.Sprintf("%s,%s,o,%s,%s", attr, scope, typeChar, value), path)
}

// ncrename renames a variable inside the file.
func ncrename(ctx context.Context, run CommandRunner, path, oldName, newName string) error {
	return run.Run(ctx, "ncrename",
		"-h", "-v", fmt.Sprintf("%s,%s", oldName, newName), path)
}

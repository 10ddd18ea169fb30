package main

import (
	"errors"
	"os"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/cli"
	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/version"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, cli.BuildInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildTime: version.BuildTime,
	})
	if err := cmd.Execute(); err != nil {
		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			os.Exit(withExitCode.ExitCode())
		}
		os.Exit(1)
	}
}

// Command webserv is an HTTP/1.1 origin server driven by an nginx-like
// configuration file: static content, multipart uploads, DELETE and CGI
// over a single-threaded poll(2) event loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/webserv/pkg/webserv/config"
	"github.com/yourusername/webserv/pkg/webserv/server"
)

var debug bool

func main() {
	root := &cobra.Command{
		Use:          "webserv [config-file]",
		Short:        "HTTP/1.1 origin server with static, upload and CGI handling",
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}
	root.Flags().BoolVar(&debug, "debug", false, "development logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	path := config.DefaultPath
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	watcher, err := config.Watch(path, log)
	if err != nil {
		log.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	server.InstallSignals(log)
	return server.New(cfg, log).Run()
}

func buildLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

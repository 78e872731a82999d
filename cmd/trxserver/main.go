/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command trxserver hosts a TRX module over HTTP. It does not parse TRX
// source or discover files on disk: it serves an empty trx.NewModule(),
// wired to the in-memory driver (other database types log a warning and
// fall back to it) and to trx/httpapi.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrykodden/trx"
	"github.com/harrykodden/trx/driver"
	"github.com/harrykodden/trx/httpapi"
)

var (
	configPath string
	listenAddr string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trxserver",
		Short: "Serve a TRX module's exported procedures over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "address to listen on (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	module := trx.NewModule()

	var drv driver.Driver
	switch cfg.Database.Type {
	case string(driver.TypeMemory), "":
		drv = driver.NewMemory()
	default:
		logger.Warnf("database type %q has no built-in backend; falling back to the in-memory driver", cfg.Database.Type)
		drv = driver.NewMemory()
	}

	interp := trx.NewInterpreter(module, drv, logger)
	if err := interp.Initialize(cmd.Context()); err != nil {
		return err
	}
	defer interp.Close()

	server := httpapi.NewServer(interp, httpapi.Config{WorkerPoolSize: cfg.WorkerPoolSize})

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server,
	}

	pterm.DefaultBigText.WithLetters(pterm.NewLettersFromStringWithStyle("TRX", pterm.NewStyle(pterm.FgCyan))).Render()
	pterm.Info.Printfln("listening on %s", cfg.Listen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("trxserver exited with error")
		os.Exit(1)
	}
}

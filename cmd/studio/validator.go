package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fystack/solana-studio/internal/rpc/solana"
	"github.com/fystack/solana-studio/internal/validator"
	"github.com/fystack/solana-studio/pkg/common/constant"
	"github.com/fystack/solana-studio/pkg/common/logger"
	"github.com/fystack/solana-studio/pkg/retry"
)

var (
	waitHealthy  time.Duration
	stopTimeout  time.Duration
	tailInterval time.Duration
)

var validatorCmd = &cobra.Command{
	Use:   "validator",
	Short: "Manage the local validator process",
}

var validatorStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local validator and stream its output until interrupted",
	RunE:  runValidatorStart,
}

var validatorPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the selected RPC endpoint is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		client := a.clients(a.network)
		if !client.TestConnection(cmd.Context()) {
			return fmt.Errorf("%s (%s) is not healthy", a.network, a.network.Endpoint())
		}
		fmt.Printf("%s (%s) is healthy\n", a.network, a.network.Endpoint())
		return nil
	},
}

func init() {
	validatorStartCmd.Flags().DurationVar(&waitHealthy, "wait", 30*time.Second, "how long to wait for the RPC endpoint to report healthy (0 disables)")
	validatorStartCmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 10*time.Second, "how long to wait for the process to exit on shutdown")
	validatorStartCmd.Flags().DurationVar(&tailInterval, "tail-interval", 100*time.Millisecond, "poll interval for validator output")

	validatorCmd.AddCommand(validatorStartCmd, validatorPingCmd)
}

func runValidatorStart(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	proc := validator.NewSupervisor(validator.SupervisorConfig{
		Binary:       a.cfg.Validator.Binary,
		Args:         a.cfg.Validator.Args,
		OutputBuffer: a.cfg.Validator.OutputBuffer,
	})
	ctrl := validator.NewController(proc, validator.WithObserver(func(s validator.Status) {
		if err := a.emitter.EmitStatus(s); err != nil {
			logger.Warn("Emit validator status", "err", err)
		}
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := ctrl.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		status, _ := ctrl.Stop(stopCtx)
		logger.Info("Validator shut down", "status", status.String())
	}()

	tailDone := make(chan struct{})
	go func() {
		defer close(tailDone)
		tail(ctx, ctrl)
	}()

	if waitHealthy > 0 {
		local := a.clients(localnetFor(a))
		if err := waitForHealth(ctx, local, waitHealthy); err != nil {
			logger.Warn("Validator RPC not healthy yet", "endpoint", local.Network().Endpoint(), "err", err)
		} else {
			logger.Info("Validator RPC healthy", "endpoint", local.Network().Endpoint())
		}
	}

	logger.Info("Validator is running... Press Ctrl+C to stop")
	<-ctx.Done()
	<-tailDone
	return nil
}

// localnetFor picks the endpoint a freshly started validator serves.
func localnetFor(a *app) solana.Network {
	if a.network.Cluster == solana.Custom {
		return a.network
	}
	return solana.Localnet()
}

// tail prints validator output until ctx is cancelled.
func tail(ctx context.Context, ctrl *validator.Controller) {
	ticker := time.NewTicker(tailInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				line := ctrl.ReadLine()
				if line == constant.NoOutput {
					break
				}
				fmt.Println(line)
			}
		}
	}
}

func waitForHealth(ctx context.Context, client solana.API, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errUnhealthy := errors.New("endpoint not healthy")
	return retry.ExponentialWithContext(ctx, func() error {
		if client.TestConnection(ctx) {
			return nil
		}
		return errUnhealthy
	}, retry.ExponentialConfig{
		InitialInterval: 250 * time.Millisecond,
		MaxElapsedTime:  timeout,
		OnRetry: func(err error, next time.Duration) {
			logger.Debug("Waiting for validator RPC", "next", next)
		},
	})
}

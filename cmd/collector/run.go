package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brokerops/statement-collector/internal/config"
	"github.com/brokerops/statement-collector/internal/types"
)

var (
	runLoginURL    string
	runUsername    string
	runPassword    string
	runPeriodStart string
	runJobID       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single collection job",
	Long:  `Run one statement-collection job to completion and exit. Useful for testing a carrier routine without the server.`,
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runLoginURL, "login-url", "", "Carrier portal login URL")
	runCmd.Flags().StringVar(&runUsername, "username", "", "Portal username")
	runCmd.Flags().StringVar(&runPassword, "password", "", "Portal password")
	runCmd.Flags().StringVar(&runPeriodStart, "period-start", "", "Accounting period start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runJobID, "job-id", "", "Job ID (generated when omitted)")
	_ = runCmd.MarkFlagRequired("login-url")
	_ = runCmd.MarkFlagRequired("username")
	_ = runCmd.MarkFlagRequired("password")
	_ = runCmd.MarkFlagRequired("period-start")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	periodStart, err := time.Parse("2006-01-02", runPeriodStart)
	if err != nil {
		return fmt.Errorf("period-start must be YYYY-MM-DD: %w", err)
	}

	rt, err := buildRuntime(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build collector: %w", err)
	}
	defer rt.close()

	job := &types.Job{
		ID: runJobID,
		Credential: types.Credential{
			Username: runUsername,
			Password: runPassword,
			LoginURL: runLoginURL,
		},
		PeriodStart: periodStart,
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	log.Printf("Running collection job %s", job.ID)
	rt.orchestrator.Run(cmd.Context(), job)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/scheduler"
	"github.com/decisiveml/ruinlab/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `프로필 재평가 스케줄러를 시작하거나 작업을 관리합니다.

meta.schedule 이 지정된 프로필마다 assessment:<profile_id> 작업이 등록됩니다.
스케줄은 초 필드를 포함한 cron 표현식입니다 (예: "0 30 2 * * *").

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/ruinlab scheduler start
  go run ./cmd/ruinlab scheduler list
  go run ./cmd/ruinlab scheduler run assessment:es-trend-nightly`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 --profiles-dir 의 모든 스케줄 프로필을 등록합니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ruinlab Scheduler ===")

	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	profiles, err := profile.LoadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Registered jobs:")
	for _, p := range profiles {
		if p.Meta.Schedule == "" {
			fmt.Fprintf(out, "  - %-40s (manual)\n", p.Meta.ProfileID)
			continue
		}
		fmt.Fprintf(out, "  - %-40s %s\n", "assessment:"+p.Meta.ProfileID, p.Meta.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s completed in %s (%d attempt(s))", jobName, result.Duration, result.Attempts))
	return nil
}

func initScheduler(ctx context.Context) (*app, *scheduler.Scheduler, error) {
	// 1. Load profiles
	profiles, err := profile.LoadDir(profilesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load profiles: %w", err)
	}

	// 2. Wire dependencies
	a, err := setup(ctx)
	if err != nil {
		return nil, nil, err
	}

	// 3. Create scheduler
	sched := scheduler.New(a.log)

	// 4. Register jobs
	for _, job := range jobs.FromProfiles(profiles, a.service, a.cache, a.log) {
		if err := sched.AddJob(job); err != nil {
			a.close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}

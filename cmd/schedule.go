package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dockops/yms/app"
	"github.com/dockops/yms/config"
	"github.com/dockops/yms/core/appointment"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/infra/logger"
)

var (
	scheduleCarrier  string
	scheduleDuration int
	scheduleWindow   string
	scheduleDate     string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Book a test appointment against a fresh engine",
	RunE:  scheduleTest,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCarrier, "carrier", "Test Carrier", "carrier name")
	scheduleCmd.Flags().IntVar(&scheduleDuration, "duration", 60, "duration in minutes")
	scheduleCmd.Flags().StringVar(&scheduleWindow, "window", "any", "preferred window (any, morning, afternoon, evening)")
	scheduleCmd.Flags().StringVar(&scheduleDate, "date", "", "date (YYYY-MM-DD, defaults to tomorrow)")
	rootCmd.AddCommand(scheduleCmd)
}

func scheduleTest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("schedule-command")
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	date := time.Now().UTC().AddDate(0, 0, 1)
	if scheduleDate != "" {
		date, err = time.Parse("2006-01-02", scheduleDate)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	appt, err := svc.Manager().Schedule(ctx, appointment.ScheduleRequest{
		WarehouseID:     svc.WarehouseID(),
		Date:            date,
		Window:          model.WindowFromString(scheduleWindow),
		Operation:       model.OpReceiving,
		DurationMinutes: scheduleDuration,
		CarrierName:     scheduleCarrier,
	})
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	logg.Infof("booked %s on dock %d from %s to %s",
		appt.AppointmentNumber, appt.DockNumber,
		appt.ScheduledStart.Format(time.RFC3339), appt.ScheduledEnd.Format(time.RFC3339))
	return nil
}

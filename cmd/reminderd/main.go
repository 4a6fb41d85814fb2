// Command reminderd runs the medication reminder scheduler and manages
// stored reminders.
//
// Usage:
//
//	reminderd [-config path] serve
//	reminderd [-config path] add -name Aspirin -dosage 100mg -date 2024-06-01 -time 08:00 [-repeat 480]
//	reminderd [-config path] list
//	reminderd [-config path] rm -id 3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/jdziat/durable-reminders/internal/config"
	"github.com/jdziat/durable-reminders/internal/logging"
	"github.com/jdziat/durable-reminders/pkg/bootstrap"
	"github.com/jdziat/durable-reminders/pkg/core"
	"github.com/jdziat/durable-reminders/pkg/maintenance"
	"github.com/jdziat/durable-reminders/pkg/notify"
	"github.com/jdziat/durable-reminders/pkg/schedule"
	"github.com/jdziat/durable-reminders/pkg/scheduler"
	"github.com/jdziat/durable-reminders/pkg/service"
	"github.com/jdziat/durable-reminders/pkg/storage"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  core.Storage
	close  func() error
}

func main() {
	configPath := flag.String("config", "reminders.yaml", "path to YAML configuration")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "reminderd:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] <serve|add|list|rm> [flags]\n", os.Args[0])
	flag.PrintDefaults()
}

func run(ctx context.Context, configPath, cmd string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	a, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.logger.Warn("closing storage", "error", err)
		}
	}()

	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx)
	case "rm":
		return a.remove(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, close: func() error { return nil }}

	db := cfg.Database
	if db.Driver == "memory" {
		logger.Warn("using in-memory storage, reminders will not survive a restart")
		a.store = storage.NewMemoryStorage()
	} else {
		gs, err := storage.Open(db.Driver, db.DSN, logging.Gorm(logger),
			storage.MaxOpenConns(db.MaxOpenConns),
			storage.MaxIdleConns(db.MaxIdleConns),
			storage.ConnMaxLifetime(db.ConnMaxLifetime),
			storage.ConnMaxIdleTime(db.ConnMaxIdleTime),
		)
		if err != nil {
			return nil, err
		}
		a.store = gs
		a.close = gs.Close
	}

	if err := a.store.Migrate(ctx); err != nil {
		_ = a.close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *app) notifier() (core.Notifier, error) {
	loc := a.cfg.Loc()
	sinks := []core.Notifier{notify.Log(a.logger)}

	if a.cfg.Notify.Console {
		sinks = append(sinks, notify.Writer(os.Stdout, loc))
	}

	tg := a.cfg.Notify.Telegram
	if tg.Enabled {
		client := &http.Client{Timeout: a.cfg.Scheduler.NotifyTimeout}
		bot, err := tgbotapi.NewBotAPIWithClient(tg.Token, tgbotapi.APIEndpoint, client)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.logger.Info("telegram notifications enabled", "bot", bot.Self.UserName, "chat_id", tg.ChatID)

		opts := []notify.TelegramOption{notify.RatePerSec(tg.RatePerSec), notify.InLocation(loc)}
		if tg.Silent {
			opts = append(opts, notify.DisableNotification())
		}
		sinks = append(sinks, notify.Telegram(bot, tg.ChatID, opts...))
	}

	return notify.Multi(sinks...), nil
}

func (a *app) serve(ctx context.Context) error {
	n, err := a.notifier()
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	sc := a.cfg.Scheduler
	sched := scheduler.New(a.store, n,
		scheduler.WithClock(clock),
		scheduler.WithLogger(a.logger),
		scheduler.Concurrency(sc.Concurrency),
		scheduler.QueueSize(sc.QueueSize),
		scheduler.NotifyTimeout(sc.NotifyTimeout),
	)

	res, err := bootstrap.Bootstrap(ctx, a.store, sched, clock.Now(), bootstrap.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.logger.Info("scheduler starting",
		"scheduled", res.Scheduled,
		"skipped_past", res.Skipped,
		"concurrency", sc.Concurrency)

	runner := maintenance.NewRunner(maintenance.WithClock(clock), maintenance.WithLogger(a.logger))
	mc := a.cfg.Maintenance
	if mc.ResyncInterval > 0 {
		runner.Add("resync", schedule.Every(mc.ResyncInterval), maintenance.Resync(a.store, sched, clock, a.logger))
	}
	if mc.PruneCron != "" {
		cron, err := schedule.ParseCron(mc.PruneCron, a.cfg.Loc())
		if err != nil {
			return fmt.Errorf("maintenance.prune_cron: %w", err)
		}
		runner.Add("prune", cron, maintenance.Prune(a.store, mc.Retention, clock, a.logger))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return runner.Run(gctx) })

	err = g.Wait()
	a.logger.Info("scheduler stopped", "pending", sched.Pending())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// offlineScheduler satisfies the service when no dispatcher runs in this
// process. It never arms a timer; a running daemon picks new reminders up on
// its next resync.
type offlineScheduler struct{}

func (offlineScheduler) Schedule(int64, time.Time) bool { return false }
func (offlineScheduler) Cancel(int64) int              { return 0 }

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	name := fs.String("name", "", "medication name")
	dosage := fs.String("dosage", "", "dosage, e.g. 500mg")
	date := fs.String("date", "", "date as YYYY-MM-DD")
	clockStr := fs.String("time", "", "time as HH:MM")
	repeat := fs.Int("repeat", 0, "repeat interval in minutes, 0 for one-shot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := a.cfg.Loc()
	at, err := service.ParseSchedule(*date, *clockStr, loc)
	if err != nil {
		return err
	}

	var opts []service.Option
	if *repeat != 0 {
		opts = append(opts, service.Repeat(*repeat))
	}

	svc := service.New(a.store, offlineScheduler{}, service.WithLogger(a.logger))
	r, err := svc.Create(ctx, *name, *dosage, at, opts...)
	if err != nil {
		return err
	}
	if !r.ScheduleTime.After(time.Now()) {
		a.logger.Warn("reminder time already passed, it will not fire", "reminder_id", r.ID)
	} else {
		a.logger.Info("reminder stored, a running daemon arms it on its next resync",
			"reminder_id", r.ID,
			"resync_interval", a.cfg.Maintenance.ResyncInterval)
	}
	fmt.Printf("created reminder %d at %s\n", r.ID, r.ScheduleTime.In(loc).Format("2006-01-02 15:04"))
	return nil
}

func (a *app) list(ctx context.Context) error {
	svc := service.New(a.store, offlineScheduler{}, service.WithLogger(a.logger))
	reminders, err := svc.List(ctx)
	if err != nil {
		return err
	}

	loc := a.cfg.Loc()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMEDICATION\tDOSAGE\tNEXT\tREPEAT")
	for _, r := range reminders {
		repeat := "-"
		if r.IsRepeating() {
			repeat = (time.Duration(*r.RepeatMinutes) * time.Minute).String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.MedicationName, r.Dosage,
			r.ScheduleTime.In(loc).Format("2006-01-02 15:04"), repeat)
	}
	return w.Flush()
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	id := fs.Int64("id", 0, "reminder id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("rm: -id is required")
	}

	svc := service.New(a.store, offlineScheduler{}, service.WithLogger(a.logger))
	if err := svc.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted reminder %d\n", *id)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"geoattend/internal/attendance"
	"geoattend/internal/center"
	"geoattend/internal/clock"
	"geoattend/internal/config"
	"geoattend/internal/notify"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
	"geoattend/internal/store"
)

// The worker consumes admitted attendance transitions off the queue and
// notifies the student's parent through the SMS gateway.
func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "geoattend:notify")
	}

	records := attendance.NewRepository(db.Client)
	students := roster.NewRepository(db.Client)
	centers := center.NewRepository(db.Client)
	gateway := notify.New(cfg.NotifyGatewayURL, cfg.NotifyAPIKey, cfg.NotifySkip)
	loc := clock.Location(cfg.Timezone)

	if !cfg.NotifySkip {
		if err := gateway.Health(ctx); err != nil {
			logger.Warn("notify gateway unreachable, sends will be retried per message", zap.Error(err))
		} else {
			logger.Info("notify gateway connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	w := &worker{
		records:  records,
		students: students,
		centers:  centers,
		gateway:  gateway,
		loc:      loc,
		log:      logger,
	}

	logger.Info("worker started")
	for msg := range messages {
		if msg.Type != "attendance" {
			continue
		}
		var evt notify.Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			logger.Warn("bad event payload", zap.Error(err))
			continue
		}
		if err := w.handle(ctx, evt); err != nil {
			logger.Error("notify failed",
				zap.String("record_id", evt.RecordID),
				zap.String("action", evt.Action),
				zap.Error(err))
		}
	}
	logger.Info("worker stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" || env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

type worker struct {
	records  *attendance.Repository
	students *roster.Repository
	centers  *center.Repository
	gateway  *notify.Client
	loc      *time.Location
	log      *zap.Logger
}

// handle re-reads the record so an admin edit or delete between the publish
// and the send wins. A record or student that vanished is not an error.
func (w *worker) handle(ctx context.Context, evt notify.Event) error {
	rec, err := w.records.FindByID(ctx, evt.RecordID)
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}
	if rec == nil {
		w.log.Debug("record gone, skipping", zap.String("record_id", evt.RecordID))
		return nil
	}

	student, err := w.students.FindStudent(ctx, rec.StudentID)
	if err != nil {
		return fmt.Errorf("fetch student: %w", err)
	}
	if student == nil {
		w.log.Debug("student gone, skipping", zap.String("student_id", rec.StudentID))
		return nil
	}
	if student.ParentPhone == nil || *student.ParentPhone == "" {
		w.log.Debug("no parent phone on file", zap.String("student_id", student.ID))
		return nil
	}

	centerName := rec.CenterID
	if ctr, err := w.centers.FindCenter(ctx, rec.CenterID); err == nil && ctr != nil {
		centerName = ctr.Name
	}

	at := rec.CheckInAt
	if evt.Action == attendance.ActionCheckOut && rec.CheckOutAt != nil {
		at = *rec.CheckOutAt
	}
	text := messageText(evt.Action, student.Name, centerName, at, w.loc)

	res, err := w.gateway.Send(ctx, *student.ParentPhone, text)
	if err != nil {
		return err
	}
	w.log.Info("parent notified",
		zap.String("student_id", student.ID),
		zap.String("action", evt.Action),
		zap.String("message_id", res.MessageID))
	return nil
}

func messageText(action, studentName, centerName string, at time.Time, loc *time.Location) string {
	verb := "checked in"
	if action == attendance.ActionCheckOut {
		verb = "checked out"
	}
	return fmt.Sprintf("%s %s at %s on %s", studentName, verb, centerName, clock.FormatDisplay(at, loc))
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/6inq/flippr/internal/detect"
	"github.com/6inq/flippr/internal/store"
)

// Scheduler manages the polling tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Detector *detect.Detector
	Chat     *detect.ChatWatcher
	Store    *store.Store
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, d *detect.Detector, cw *detect.ChatWatcher, st *store.Store) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(),
		Detector: d,
		Chat:     cw,
		Store:    st,
		Ctx:      ctx,
	}
}

// RegisterAll registers the OCR, chat, and autosave tasks.
func (s *Scheduler) RegisterAll(ocrInterval, chatInterval, autosaveInterval time.Duration) error {
	if _, err := s.Cron.AddFunc(every(ocrInterval), s.ocrTask); err != nil {
		return fmt.Errorf("register ocr task: %w", err)
	}
	if _, err := s.Cron.AddFunc(every(chatInterval), s.chatTask); err != nil {
		return fmt.Errorf("register chat task: %w", err)
	}
	// the store saves on every mutation; the periodic save covers crashes
	// between a load and the first mutation
	if _, err := s.Cron.AddFunc(every(autosaveInterval), s.autosaveTask); err != nil {
		return fmt.Errorf("register autosave task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	ctx := s.Cron.Stop()
	<-ctx.Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) ocrTask() {
	if err := s.Detector.Poll(s.Ctx); err != nil {
		log.Printf("[WARN] ocr poll: %v", err)
	}
}

func (s *Scheduler) chatTask() {
	if err := s.Chat.Poll(s.Ctx); err != nil {
		log.Printf("[WARN] chat poll: %v", err)
	}
}

func (s *Scheduler) autosaveTask() {
	s.Store.SaveNow()
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

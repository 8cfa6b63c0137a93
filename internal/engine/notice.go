package engine

import (
	"log"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-visible message raised by the engine.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(Notice)
}

// Notifiers fans a notice out to several notifiers.
type Notifiers []Notifier

func (n Notifiers) Notify(notice Notice) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(notice)
		}
	}
}

// LogNotifier writes notices to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(notice Notice) {
	if notice.Err != nil {
		log.Printf("%s: %s: %v", notice.Level, notice.Message, notice.Err)
		return
	}
	log.Printf("%s: %s", notice.Level, notice.Message)
}

// NoticeLog keeps the most recent notices in memory for presentation layers.
type NoticeLog struct {
	mu      sync.Mutex
	limit   int
	notices []Notice
}

func NewNoticeLog(limit int) *NoticeLog {
	if limit <= 0 {
		limit = 50
	}
	return &NoticeLog{limit: limit}
}

func (l *NoticeLog) Notify(notice Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, notice)
	if len(l.notices) > l.limit {
		l.notices = append([]Notice(nil), l.notices[len(l.notices)-l.limit:]...)
	}
}

// Latest returns the newest notice, if any.
func (l *NoticeLog) Latest() (Notice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.notices) == 0 {
		return Notice{}, false
	}
	return l.notices[len(l.notices)-1], true
}

func (l *NoticeLog) All() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notice(nil), l.notices...)
}

// Drain returns every stored notice and clears the log.
func (l *NoticeLog) Drain() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.notices
	l.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

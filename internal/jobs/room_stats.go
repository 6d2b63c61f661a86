package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"postbox/internal/metrics"
	"postbox/internal/models"
)

// RoomLister is satisfied by session.Hub.
type RoomLister interface {
	Rooms() []models.RoomInfo
}

// RoomStats summarises one stats run.
type RoomStats struct {
	Rooms        int
	ActiveRooms  int
	Participants int
}

// RoomStatsJob periodically logs registry occupancy and refreshes the rooms gauge.
type RoomStatsJob struct {
	rooms    RoomLister
	schedule string
	log      *zap.Logger
	cron     *cron.Cron
}

func NewRoomStatsJob(rooms RoomLister, schedule string, log *zap.Logger) *RoomStatsJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomStatsJob{rooms: rooms, schedule: schedule, log: log, cron: cron.New()}
}

// Start schedules the job. An empty schedule disables it.
func (j *RoomStatsJob) Start() error {
	if j.schedule == "" {
		j.log.Info("room stats job disabled")
		return nil
	}
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run() }); err != nil {
		return fmt.Errorf("failed to schedule room stats job: %w", err)
	}
	j.cron.Start()
	j.log.Info("room stats job started", zap.String("schedule", j.schedule))
	return nil
}

func (j *RoomStatsJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Run performs a single stats pass.
func (j *RoomStatsJob) Run() RoomStats {
	infos := j.rooms.Rooms()
	stats := RoomStats{
		Rooms:        len(infos),
		ActiveRooms:  lo.CountBy(infos, func(r models.RoomInfo) bool { return r.Participants > 0 }),
		Participants: lo.SumBy(infos, func(r models.RoomInfo) int { return r.Participants }),
	}
	metrics.SetRooms(stats.Rooms)
	j.log.Info("room stats",
		zap.Int("rooms", stats.Rooms),
		zap.Int("active_rooms", stats.ActiveRooms),
		zap.Int("participants", stats.Participants))
	return stats
}

package cron

import (
	"log"
	"time"

	"github.com/qs3c/persona_go_server/internal/repository"
)

// 建号任务派发出去但回调一直没来的壳记录会永远卡在未锁定状态，
// 占着 user_id 唯一位导致用户再也建不了号。到期清掉，让用户能重来。

type Service struct {
	influencerRepo *repository.InfluencerRepository
	expireHours    int
	stopChan       chan struct{}
}

func NewService(influencerRepo *repository.InfluencerRepository, expireHours int) *Service {
	return &Service{
		influencerRepo: influencerRepo,
		expireHours:    expireHours,
		stopChan:       make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runShellSweep()
	log.Println("Cron service started (stale shell sweep)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runShellSweep 每小时清一次过期壳
func (s *Service) runShellSweep() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.SweepStaleShells()
		}
	}
}

// SweepStaleShells 删除超过保留期仍未锁定的壳记录，返回清理条数
func (s *Service) SweepStaleShells() int {
	expireHours := s.expireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	before := time.Now().Add(-time.Duration(expireHours) * time.Hour)

	shells, err := s.influencerRepo.ListStaleShells(before)
	if err != nil {
		log.Printf("Shell sweep: failed to list stale shells: %v", err)
		return 0
	}

	removed := 0
	for _, shell := range shells {
		if err := s.influencerRepo.Delete(shell.ID); err != nil {
			log.Printf("Shell sweep: failed to delete %s: %v", shell.ID, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("Shell sweep: removed %d stale shells", removed)
	}
	return removed
}

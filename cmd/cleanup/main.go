package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/database"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
)

var (
	dryRun      = flag.Bool("dry-run", true, "Dry run mode, don't actually delete anything")
	shellExpire = flag.Int("shell-expire", 0, "Hours to keep unlocked influencer shells (0 = config value)")
	cleanMedia  = flag.Bool("clean-media", true, "Remove local media files no image row references")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	influencerRepo := repository.NewInfluencerRepository(db)

	// 1. 清理过期的未锁定壳记录
	expireHours := *shellExpire
	if expireHours <= 0 {
		expireHours = cfg.Cleanup.ShellExpireHours
	}
	removed := cleanStaleShells(influencerRepo, expireHours, *dryRun)
	log.Printf("Stale shells: %d removed", removed)

	// 2. 清理没有图片记录引用的本地媒体文件
	if *cleanMedia && cfg.Storage.Backend == "local" {
		count := cleanOrphanMedia(db, cfg.Storage.MediaDir, *dryRun)
		log.Printf("Orphan media files: %d removed", count)
	}

	log.Println("Cleanup done")
}

func cleanStaleShells(repo *repository.InfluencerRepository, expireHours int, dryRun bool) int {
	before := time.Now().Add(-time.Duration(expireHours) * time.Hour)
	shells, err := repo.ListStaleShells(before)
	if err != nil {
		log.Printf("Failed to list stale shells: %v", err)
		return 0
	}

	removed := 0
	for _, shell := range shells {
		log.Printf("  stale shell %s (user %s, created %s)",
			shell.ID, shell.UserID, shell.CreatedAt.Format(time.RFC3339))
		if dryRun {
			removed++
			continue
		}
		if err := repo.Delete(shell.ID); err != nil {
			log.Printf("  failed to delete %s: %v", shell.ID, err)
			continue
		}
		removed++
	}
	return removed
}

// cleanOrphanMedia 删除数据库里查不到的媒体文件。回调下载成功但
// 落库失败时会留下这种文件。URL 的约定是 <base>/<user_id>/<文件名>。
func cleanOrphanMedia(db *gorm.DB, mediaDir string, dryRun bool) int {
	var urls []string
	if err := db.Model(&model.Image{}).Pluck("url", &urls).Error; err != nil {
		log.Printf("Failed to list image urls: %v", err)
		return 0
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		parts := strings.Split(strings.Trim(url, "/"), "/")
		if len(parts) < 2 {
			continue
		}
		// 取末尾的 user_id/文件名 作为键
		key := parts[len(parts)-2] + "/" + parts[len(parts)-1]
		referenced[key] = struct{}{}
	}

	removed := 0
	filepath.Walk(mediaDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(mediaDir, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if _, ok := referenced[key]; ok {
			return nil
		}
		// 刚写入还没落库的文件放过一轮
		if time.Since(info.ModTime()) < time.Hour {
			return nil
		}

		log.Printf("  orphan media %s", key)
		if !dryRun {
			if err := os.Remove(path); err != nil {
				log.Printf("  failed to remove %s: %v", path, err)
				return nil
			}
		}
		removed++
		return nil
	})
	return removed
}

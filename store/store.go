package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// projectRecord 是项目的持久化行。项目状态整体序列化为 JSON 快照，
// 行级字段只保留查询需要的列。
type projectRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (projectRecord) TableName() string { return "projects" }

// Store 是基于 SQLite 的项目持久层，同时负责项目目录布局。
type Store struct {
	db      *gorm.DB
	dataDir string
	logger  *zap.Logger
}

// Open 打开（必要时创建）数据库并完成迁移。dataDir 是项目资产根目录。
func Open(dbPath, dataDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "store"))

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&projectRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connected", zap.String("path", dbPath))
	return &Store{db: db, dataDir: dataDir, logger: logger}, nil
}

// Load 读取项目状态，不存在返回 (nil, nil)。
func (s *Store) Load(ctx context.Context, id string) (*pipeline.Project, error) {
	var record projectRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", id, err)
	}

	var p pipeline.Project
	if err := json.Unmarshal(record.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", id, err)
	}
	return &p, nil
}

// Save 写入项目状态快照并刷新修改时间。
func (s *Store) Save(ctx context.Context, p *pipeline.Project) (*pipeline.Project, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("cannot save project without id")
	}
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project %s: %w", p.ID, err)
	}

	record := projectRecord{
		ID:        p.ID,
		Name:      p.Name,
		Data:      data,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to save project %s: %w", p.ID, err)
	}
	return p, nil
}

// List 返回全部项目，按修改时间倒序。
func (s *Store) List(ctx context.Context) ([]*pipeline.Project, error) {
	var records []projectRecord
	if err := s.db.WithContext(ctx).Order("updated_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]*pipeline.Project, 0, len(records))
	for _, record := range records {
		var p pipeline.Project
		if err := json.Unmarshal(record.Data, &p); err != nil {
			s.logger.Warn("跳过无法解码的项目行", zap.String("id", record.ID), zap.Error(err))
			continue
		}
		projects = append(projects, &p)
	}
	return projects, nil
}

// Delete 删除项目行。资产文件保留在磁盘上，由运维清理。
func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&projectRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewError(types.ErrProjectNotFound, "project not found: "+id)
	}
	return nil
}

// EnsureDirectories 创建项目的标准目录布局并返回各路径。
func (s *Store) EnsureDirectories(id string) (pipeline.Dirs, error) {
	root := filepath.Join(s.dataDir, "projects", id)
	dirs := pipeline.Dirs{
		Root:      root,
		Scripts:   filepath.Join(root, "scripts"),
		Keyframes: filepath.Join(root, "keyframes"),
		Clips:     filepath.Join(root, "clips"),
		Frames:    filepath.Join(root, "frames"),
		Exports:   filepath.Join(root, "exports"),
	}
	for _, d := range []string{dirs.Scripts, dirs.Keyframes, dirs.Clips, dirs.Frames, dirs.Exports} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return pipeline.Dirs{}, fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return dirs, nil
}

// Ping 校验数据库连接可用，供就绪探针使用。
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// FramesDir 返回跨项目共享的末帧目录。
func (s *Store) FramesDir() string {
	return filepath.Join(s.dataDir, "frames")
}

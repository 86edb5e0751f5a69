package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type resultRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Domain    string    `gorm:"column:domain;uniqueIndex;not null"`
	BaseName  string    `gorm:"column:base_name;not null"`
	TLD       string    `gorm:"column:tld;index;not null"`
	Status    string    `gorm:"column:status;index;not null"`
	Registrar *string   `gorm:"column:registrar"`
	Expiry    *string   `gorm:"column:expiry"`
	CheckedAt time.Time `gorm:"column:checked_at;not null"`
}

func (resultRow) TableName() string { return "domains" }

func rowFromResult(r CheckResult) resultRow {
	return resultRow{
		Domain:    r.Domain,
		BaseName:  r.BaseName,
		TLD:       r.TLD,
		Status:    string(r.Status),
		Registrar: r.Registrar,
		Expiry:    r.Expiry,
		CheckedAt: r.CheckedAt.UTC(),
	}
}

func (row resultRow) result() CheckResult {
	return CheckResult{
		ID:        row.ID,
		Domain:    row.Domain,
		BaseName:  row.BaseName,
		TLD:       row.TLD,
		Status:    Status(row.Status),
		Registrar: row.Registrar,
		Expiry:    row.Expiry,
		CheckedAt: row.CheckedAt,
	}
}

// SQLRepository 基于 gorm 的结果存储。
type SQLRepository struct {
	db *gorm.DB
}

// OpenSQLite 打开（必要时创建）sqlite 数据库并迁移表结构。
func OpenSQLite(path string) (*SQLRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 单写者
	sqlDB.SetMaxOpenConns(1)

	return NewSQLRepository(db)
}

func NewSQLRepository(db *gorm.DB) (*SQLRepository, error) {
	if err := db.AutoMigrate(&resultRow{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}
	return &SQLRepository{db: db}, nil
}

func (s *SQLRepository) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLRepository) Upsert(ctx context.Context, r CheckResult) (int64, error) {
	row := rowFromResult(r)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "registrar", "expiry", "checked_at"}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("写入结果 %s 失败: %w", r.Domain, err)
	}

	var stored resultRow
	if err := s.db.WithContext(ctx).Select("id").Where("domain = ?", r.Domain).Take(&stored).Error; err != nil {
		return 0, fmt.Errorf("读取结果 %s 失败: %w", r.Domain, err)
	}
	return stored.ID, nil
}

func (s *SQLRepository) Query(ctx context.Context, f Filter) ([]CheckResult, error) {
	q := s.db.WithContext(ctx).Model(&resultRow{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.TLD != "" {
		q = q.Where("tld = ?", f.TLD)
	}
	if f.Search != "" {
		q = q.Where("domain LIKE ?", "%"+f.Search+"%")
	}

	var rows []resultRow
	if err := q.Order("checked_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询结果失败: %w", err)
	}
	return results(rows), nil
}

func (s *SQLRepository) Get(ctx context.Context, id int64) (CheckResult, error) {
	var row resultRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CheckResult{}, ErrNotFound
	}
	if err != nil {
		return CheckResult{}, fmt.Errorf("读取结果 %d 失败: %w", id, err)
	}
	return row.result(), nil
}

func (s *SQLRepository) GetByIDs(ctx context.Context, ids []int64) ([]CheckResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []resultRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("批量读取结果失败: %w", err)
	}
	return results(rows), nil
}

func (s *SQLRepository) ListAvailable(ctx context.Context) ([]CheckResult, error) {
	return s.Query(ctx, Filter{Status: StatusAvailable})
}

func (s *SQLRepository) Delete(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&resultRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除结果失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func results(rows []resultRow) []CheckResult {
	out := make([]CheckResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.result())
	}
	return out
}

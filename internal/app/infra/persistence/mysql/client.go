package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fulfilment/common/entity"
)

// NewDB 打开 MySQL 连接，驱动错误翻译为 gorm 标准错误（如 ErrDuplicatedKey）
func NewDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	return db, nil
}

// Migrate 建表：订单文档、事件日志、仓库库存
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Order{}, &entity.OrderEvent{}, &entity.WarehouseItem{}); err != nil {
		return fmt.Errorf("migrate tables failed: %w", err)
	}
	return nil
}

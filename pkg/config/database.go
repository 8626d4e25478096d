package config

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lpcontrol/internal/models"
)

var DB *gorm.DB

// InitDB opens the journal database and brings the journal tables up to date.
func InitDB(s Settings) {
	db, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}

	sqlDB.SetMaxIdleConns(10)           // 设置空闲连接池中的最大连接数
	sqlDB.SetMaxOpenConns(50)           // 设置打开数据库连接的最大数量
	sqlDB.SetConnMaxLifetime(time.Hour) // 设置连接可复用的最大时间

	DB = db

	if err := DB.AutoMigrate(
		&models.PoolRecord{},
		&models.PositionRecord{},
		&models.Submission{},
	); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
	log.WithFields(log.Fields{
		"host": s.DBHost,
		"db":   s.DBName,
	}).Info("Database connected")
}

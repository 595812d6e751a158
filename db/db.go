package db

import (
	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/models"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB(cfg config.DBConfig) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Tool{}, &models.Borrow{}, &models.DrawerLog{}); err != nil {
		return err
	}

	// 库存不变量最后一道防线：计数不为负，且三者守恒
	if err := db.Exec(fmt.Sprintf(`
	  DO $$ BEGIN
	    ALTER TABLE %s ADD CONSTRAINT srv_tools_counts_nonneg
	      CHECK (available_quantity >= 0 AND borrowed_quantity >= 0);
	  EXCEPTION WHEN duplicate_object THEN NULL; END $$;
	`, models.ToolTable)).Error; err != nil {
		return err
	}
	if err := db.Exec(fmt.Sprintf(`
	  DO $$ BEGIN
	    ALTER TABLE %s ADD CONSTRAINT srv_tools_counts_balanced
	      CHECK (available_quantity + borrowed_quantity = total_quantity);
	  EXCEPTION WHEN duplicate_object THEN NULL; END $$;
	`, models.ToolTable)).Error; err != nil {
		return err
	}

	// 逾期清扫和未归还列表都按 (status, due_date) 查
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_due
	  ON %s (status, due_date)
	  WHERE return_date IS NULL;
	`, models.BorrowTable, models.BorrowTable)).Error; err != nil {
		return err
	}

	return nil
}

package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leaddesk/config"
	"leaddesk/logger"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"go.uber.org/zap"
)

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate quando
// habilitado na configuração.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	log := logger.L.With(zap.String("component", "db"))

	var (
		db  *gorm.DB
		err error
	)

	switch strings.ToLower(conf.Database) {
	case "postgres", "postgresql":
		log.Info("using postgres", zap.String("host", conf.DbHost), zap.String("db", conf.DbName))
		db, err = gorm.Open("postgres", postgresDSN(conf))
	default:
		log.Info("using sqlite3", zap.String("path", conf.SqlitePath))
		db, err = OpenSQLite(conf.SqlitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", conf.Database, err)
	}

	db.LogMode(conf.LogSQL)

	if conf.AutoMigrate {
		if err := Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// OpenSQLite opens (creating the directory if needed) a sqlite database file.
// SQLite serializes writers; a single connection keeps concurrent requests
// from failing with SQLITE_BUSY.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, err
	}
	db.DB().SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates/updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Contact{},
		&models.ContactChannel{},
		&models.Conversation{},
		&models.Message{},
		&models.AgentTask{},
		&models.Event{},
		&models.KnowledgeSnippet{},
	).Error
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func postgresDSN(conf config.Configuration) string {
	path := "host=" + conf.DbHost + " port=" + conf.DbPort
	path += " user=" + conf.DbUser + " dbname=" + conf.DbName
	path += " password=" + conf.DbPass
	path += " sslmode=" + conf.DbSSLMode
	return path
}

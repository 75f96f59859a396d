package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the database behind the DSN. A DSN containing "@tcp(" is
// treated as mysql, anything else as a sqlite path.
func Connect(dsn string) *gorm.DB {
	var (
		gdb *gorm.DB
		err error
	)
	if strings.Contains(dsn, "@tcp(") {
		gdb, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	} else {
		gdb, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

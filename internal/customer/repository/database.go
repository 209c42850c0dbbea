package repository

import (
	"context"
	"fmt"

	"github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type databaseRepository struct {
	cfg   db.Config
	table string
	log   gormlogger.Interface

	conn *gorm.DB
}

// NewDatabase reads the table from a SQL database. The connection is opened
// for the read and closed afterwards.
func NewDatabase(cfg db.Config, table string, log gormlogger.Interface) domain.Repository {
	return &databaseRepository{cfg: cfg, table: table, log: log}
}

// NewDatabaseWithConn reads through an existing connection, which is left
// open.
func NewDatabaseWithConn(conn *gorm.DB, table string) domain.Repository {
	return &databaseRepository{table: table, conn: conn}
}

func (r *databaseRepository) Rows(ctx context.Context) ([]domain.Row, error) {
	conn := r.conn
	if conn == nil {
		opened, err := db.Open(r.cfg, r.log)
		if err != nil {
			return nil, err
		}
		defer db.Close(opened)
		conn = opened
	}

	var records []map[string]any
	err := conn.WithContext(ctx).
		Table(r.table).
		Order(clause.OrderByColumn{Column: clause.Column{Name: domain.ColumnID}}).
		Find(&records).Error
	if db.IsUndefinedTable(err) {
		return nil, fmt.Errorf("%w: table %s", domain.ErrSourceNotFound, r.table)
	}
	if err != nil {
		return nil, fmt.Errorf("read customer table %s: %w", r.table, err)
	}

	rows := make([]domain.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, domain.Row(record))
	}
	return rows, nil
}

package repository

import (
	"github.com/smallbiznis/churnlens/internal/config"
	"github.com/smallbiznis/churnlens/internal/customer/domain"
	"go.uber.org/fx"
	gormlogger "gorm.io/gorm/logger"
)

type Params struct {
	fx.In

	Config     config.Config
	GormLogger gormlogger.Interface `optional:"true"`
}

func Provide(p Params) domain.Repository {
	if p.Config.UsesDatabase() {
		return NewDatabase(p.Config.Database, p.Config.Customers.Table, p.GormLogger)
	}
	return NewCSV(p.Config.Customers.CSVPath)
}

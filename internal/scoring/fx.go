package scoring

import (
	"github.com/smallbiznis/churnlens/internal/scoring/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scoring.service",
	fx.Provide(service.New),
)

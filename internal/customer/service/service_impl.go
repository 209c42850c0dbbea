package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/internal/features"
	"github.com/smallbiznis/churnlens/internal/modelstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo   domain.Repository
	Models *modelstore.Registry
	Log    *zap.Logger
}

// Service serves an immutable snapshot of the customer table.
type Service struct {
	log       *zap.Logger
	customers []domain.Customer
	byID      map[int64]int
}

// New loads the table once. A missing source yields an empty table; any
// malformed record fails the load.
func New(p Params) (domain.Service, error) {
	log := p.Log.Named("customer.service")
	ctx := context.Background()

	rows, err := p.Repo.Rows(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceNotFound) {
			return nil, err
		}
		log.Error("customer table not found, serving an empty table", zap.Error(err))
		rows = nil
	}

	customers, err := build(rows, p.Models.Current())
	if err != nil {
		return nil, err
	}

	log.Info("customer table loaded", zap.Int("customers", len(customers)))
	return newService(log, customers), nil
}

// NewFromCustomers serves an already built table.
func NewFromCustomers(customers []domain.Customer) domain.Service {
	sorted := append([]domain.Customer(nil), customers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return newService(zap.NewNop(), sorted)
}

func newService(log *zap.Logger, customers []domain.Customer) *Service {
	byID := make(map[int64]int, len(customers))
	for i, c := range customers {
		byID[c.ID] = i
	}
	return &Service{log: log, customers: customers, byID: byID}
}

func build(rows []domain.Row, models *modelstore.Bundle) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, len(rows))
	seen := make(map[int64]int, len(rows))

	for i, row := range rows {
		record := i + 1
		c, err := domain.FromRow(row)
		if err != nil {
			var rowErr *domain.RowError
			if errors.As(err, &rowErr) {
				rowErr.Line = record
			}
			return nil, err
		}
		if first, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: %d in records %d and %d", domain.ErrDuplicateID, c.ID, first, record)
		}
		seen[c.ID] = record

		if c.ChurnRisk == "" {
			risk, err := deriveRisk(&c, models)
			if err != nil {
				return nil, fmt.Errorf("customer %d: derive churn risk: %w", c.ID, err)
			}
			c.ChurnRisk = risk
		}
		customers = append(customers, c)
	}

	sort.SliceStable(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func deriveRisk(c *domain.Customer, models *modelstore.Bundle) (string, error) {
	if models == nil || models.Churn == nil {
		return "", errors.New("no churn model loaded")
	}
	vector, err := features.ChurnVector(c, models.Churn.Features())
	if err != nil {
		return "", err
	}
	prediction, err := models.Churn.Predict(vector)
	if err != nil {
		return "", err
	}
	return prediction.RiskLabel, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customerID, err := domain.ParseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	i, ok := s.byID[customerID]
	if !ok {
		return domain.Customer{}, domain.ErrNotFound
	}
	return s.customers[i], nil
}

// All returns a copy of the table in id order. Extras maps are shared with
// the snapshot.
func (s *Service) All(ctx context.Context) []domain.Customer {
	return slices.Clone(s.customers)
}

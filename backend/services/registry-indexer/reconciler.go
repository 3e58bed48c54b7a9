package main

import (
	"context"
	"encoding/json"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
	"github.com/regnet/property-registration/backend/pkg/readmodel"
)

// Evaluator queries the chaincode without committing.
type Evaluator interface {
	EvaluateTransaction(contractName, fn string, args ...string) ([]byte, error)
}

// Reconciler re-reads indexed records from the ledger and repairs the read model.
type Reconciler struct {
	store  Store
	ledger Evaluator
	logger *zap.Logger
}

func NewReconciler(store Store, ledger Evaluator, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, ledger: ledger, logger: logger}
}

// Reconcile refreshes every indexed property and its owner. It returns the number of records refreshed.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	ids, err := r.store.PropertyIDs(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		raw, err := r.ledger.EvaluateTransaction(chaincode.UserContractName, "ViewProperty", id)
		if err != nil {
			r.logger.Warn("failed to read property", zap.String("property_id", id), zap.Error(err))
			continue
		}
		var property registry.Property
		if err := json.Unmarshal(raw, &property); err != nil {
			r.logger.Warn("undecodable property", zap.String("property_id", id), zap.Error(err))
			continue
		}

		projection := readmodel.Projection{Property: &property}
		raw, err = r.ledger.EvaluateTransaction(chaincode.UserContractName, "ViewUser", property.Owner.Name, property.Owner.AadhaarNumber)
		if err == nil {
			var owner registry.User
			if json.Unmarshal(raw, &owner) == nil {
				projection.Users = []*registry.User{&owner}
			}
		}

		if err := r.store.Apply(ctx, projection); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, nil
}

// NewScheduler runs the reconciler on schedule. Panicking jobs are recovered and logged.
func NewScheduler(schedule string, r *Reconciler, logger *zap.Logger) (*cron.Cron, error) {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	_, err := c.AddFunc(schedule, func() {
		n, err := r.Reconcile(context.Background())
		if err != nil {
			logger.Error("reconcile failed", zap.Int("refreshed", n), zap.Error(err))
			return
		}
		logger.Info("reconciled read model", zap.Int("refreshed", n))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("scheduled reconcile job", zap.String("schedule", schedule))
	return c, nil
}

package gce

import (
	"context"
	"fmt"
	"time"

	"gce-instance-manager/internal/metrics"
	"gce-instance-manager/internal/poll"
	"gce-instance-manager/pkg/models"

	"github.com/sirupsen/logrus"
)

// operationDone re-reads op in scope on every call and reports whether it reached DONE.
// A failed operation is still done; the caller inspects its error payload.
func operationDone(api OperationAPI, scope Scope, op *models.Operation, logger logrus.FieldLogger) poll.Probe[*models.Operation] {
	current := op
	return func(ctx context.Context) (*models.Operation, bool, error) {
		metrics.IncPollChecks(metrics.WaitOperation)
		fresh, err := api.Get(ctx, scope, current.Name)
		if err != nil {
			return current, false, fmt.Errorf("failed to read operation %s: %w", current.Name, err)
		}
		if fresh == nil {
			return current, false, fmt.Errorf("operation %s no longer exists", current.Name)
		}
		if fresh.Status.Rank() < current.Status.Rank() {
			logger.WithFields(logrus.Fields{
				"operation": fresh.Name,
				"previous":  current.Status,
				"current":   fresh.Status,
			}).Warn("Operation status went backwards")
		}
		current = fresh
		return fresh, fresh.IsDone(), nil
	}
}

// operationWaiter blocks until operations submitted in a scope finish.
type operationWaiter struct {
	ops      OperationAPI
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
}

// wait polls op until DONE. It returns a TimeoutError when the operation did not finish
// in time and an OperationError when it finished with an error payload.
func (w *operationWaiter) wait(ctx context.Context, scope Scope, op *models.Operation) (*models.Operation, error) {
	start := time.Now()
	log := w.logger.WithFields(logrus.Fields{
		"operation": op.Name,
		"project":   scope.Project,
		"zone":      scope.Zone,
	})
	log.Debug("Waiting for operation")

	last, done, err := poll.Until(ctx, operationDone(w.ops, scope, op, w.logger), w.timeout, w.interval)
	if err != nil {
		metrics.ObserveWait(metrics.WaitOperation, metrics.ResultError, start)
		return last, err
	}
	if !done {
		metrics.ObserveWait(metrics.WaitOperation, metrics.ResultTimeout, start)
		log.WithField("timeout", w.timeout).Warn("Operation did not reach DONE state")
		return last, &TimeoutError{What: fmt.Sprintf("operation %s", op.Name), Timeout: w.timeout}
	}
	if last.HTTPError != nil {
		metrics.ObserveWait(metrics.WaitOperation, metrics.ResultFailed, start)
		log.WithFields(logrus.Fields{
			"code":    last.HTTPError.StatusCode,
			"message": last.HTTPError.Message,
		}).Error("Operation failed")
		return last, &OperationError{
			Operation:  op.Name,
			StatusCode: last.HTTPError.StatusCode,
			Message:    last.HTTPError.Message,
		}
	}

	metrics.ObserveWait(metrics.WaitOperation, metrics.ResultDone, start)
	log.WithField("elapsed", time.Since(start)).Debug("Operation done")
	return last, nil
}

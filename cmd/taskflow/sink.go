package main

import (
	"context"
	"errors"

	"taskflow/internal/model"
	"taskflow/internal/notify"
)

type sinkRelay struct {
	target notify.Sink
}

func (r *sinkRelay) Deliver(ctx context.Context, n model.ScheduledNotification) error {
	if r.target == nil {
		return errors.New("notification sink not ready")
	}
	return r.target.Deliver(ctx, n)
}

package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/rings-p2p/internal/apperror"
	"github.com/rocketscienceinc/rings-p2p/internal/network"
)

// ConnectConfig bounds how hard a guest tries to reach the host.
type ConnectConfig struct {
	Attempts       int
	Step           time.Duration
	AttemptTimeout time.Duration
}

var DefaultConnectConfig = ConnectConfig{
	Attempts:       3,
	Step:           time.Second,
	AttemptTimeout: 5 * time.Second,
}

// linearBackOff waits step, 2*step, 3*step, ... between attempts.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (that *linearBackOff) NextBackOff() time.Duration {
	that.attempt++
	return time.Duration(that.attempt) * that.step
}

func (that *linearBackOff) Reset() {
	that.attempt = 0
}

// dial links to remote, retrying with a linearly growing pause.
func (that *Peer) dial(ctx context.Context, remote string) (network.Link, error) {
	log := that.logger.With("method", "dial")

	conf := that.connect
	if conf.Attempts <= 0 {
		conf.Attempts = 1
	}

	var (
		link    network.Link
		attempt int
	)

	operation := func() error {
		attempt++

		attemptCtx := ctx
		if conf.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, conf.AttemptTimeout)
			defer cancel()
		}

		var err error
		link, err = that.transport.Connect(attemptCtx, remote)
		that.metrics.ConnectAttempt(err == nil)

		if err != nil {
			log.Warn("connect attempt failed", "remote", remote, "attempt", attempt, "of", conf.Attempts, "error", err)
			return err
		}

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: conf.Step}, uint64(conf.Attempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: room %s unreachable after %d attempts: %w", apperror.ErrConnectionFailed, remote, attempt, err)
	}

	log.Info("connected", "remote", remote, "attempts", attempt)

	return link, nil
}

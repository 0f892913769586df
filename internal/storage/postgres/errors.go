package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

const (
	uniqueViolation  = "23505"
	connectionClass  = "08"
	adminShutdown    = "57P01"
	crashShutdown    = "57P02"
	cannotConnectNow = "57P03"
)

// classify maps driver errors onto the roster error taxonomy, keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation:
			return fmt.Errorf("%w: %w", roster.ErrConstraintViolation, err)
		case strings.HasPrefix(pgErr.Code, connectionClass),
			pgErr.Code == adminShutdown,
			pgErr.Code == crashShutdown,
			pgErr.Code == cannotConnectNow:
			return fmt.Errorf("%w: %w", roster.ErrStoreUnavailable, err)
		}
		return err
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, puddle.ErrClosedPool) {
		return fmt.Errorf("%w: %w", roster.ErrStoreUnavailable, err)
	}
	return err
}

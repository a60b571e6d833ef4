package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"donationpool/pkg/platform/sentinel"
)

// SQLSTATE classes that mean the server could not serve the request rather
// than rejecting it: connection exception, insufficient resources and
// operator intervention.
var unavailableClasses = map[pq.ErrorClass]struct{}{
	"08": {},
	"53": {},
	"57": {},
}

func storeErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := unavailableClasses[pqErr.Code.Class()]
		return ok
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

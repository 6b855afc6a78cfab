package catalog

import "errors"

var (
	ErrRouteNotFound       = errors.New("route not found")
	ErrRouteInactive       = errors.New("route is not active")
	ErrRouteConflict       = errors.New("route already exists")
	ErrTripNotFound        = errors.New("trip not found")
	ErrMerchandiseNotFound = errors.New("merchandise not found")
	ErrOutOfStock          = errors.New("not enough stock")
)

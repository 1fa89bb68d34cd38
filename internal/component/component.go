// Package component holds the power converters and weather-driven
// generators used by buildings and cells.
package component

import "errors"

// ErrInvalidParameter is returned for a physically invalid configuration.
var ErrInvalidParameter = errors.New("invalid component parameter")

package graphstore

import "errors"

var (
	ErrQueryFailed = errors.New("graph store query failed")
	ErrInvalidPath = errors.New("invalid store path")
)

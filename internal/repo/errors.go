package repo

import "errors"

// ErrNotFound — записи не найдены в БД.
var ErrNotFound = errors.New("not found")

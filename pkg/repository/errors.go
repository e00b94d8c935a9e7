package repository

import "errors"

var (
	ErrHandleTaken = errors.New("repository: apelido em uso")
	// ErrNotOwner is returned when a row exists but belongs to someone else.
	ErrNotOwner = errors.New("repository: conteúdo de outro usuário")
)

type scanner interface {
	Scan(dest ...any) error
}

// nullable turns an empty id into SQL NULL.
func nullable(id *string) any {
	if id == nil || *id == "" {
		return nil
	}
	return *id
}

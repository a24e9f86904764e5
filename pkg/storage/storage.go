package storage

import (
	"context"
	"errors"
	"io"
)

// ErrDisallowedType is returned when an upload's extension is not on the
// allow-list.
var ErrDisallowedType = errors.New("file type is not allowed")

// FileStorage defines the contract for an upload storage provider.
type FileStorage interface {
	// Save stores the file read from r and returns a reference usable to
	// retrieve it later (a relative path for local storage, a URL for
	// remote providers). folder is a logical folder, e.g. "user" or
	// "report".
	Save(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete removes a previously stored file by its reference.
	Delete(ctx context.Context, ref string) error
}

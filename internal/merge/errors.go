package merge

import "fmt"

// FileError reports a survey file whose merge failed. Batch runs collect
// these and carry on with the next file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("merge %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

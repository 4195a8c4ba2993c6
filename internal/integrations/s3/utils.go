package s3

import (
	"errors"
	"os"
)

// SecureFile is a file opened through an os.Root, so path traversal
// outside the root directory is rejected by the runtime itself.
type SecureFile struct {
	*os.File
	root *os.Root
}

// Close closes the file and its root, reporting both failures
func (sf *SecureFile) Close() error {
	return errors.Join(sf.File.Close(), sf.root.Close())
}

// SecureOpen opens filename for reading, confined to rootPath
func SecureOpen(rootPath, filename string) (*SecureFile, error) {
	root, err := os.OpenRoot(rootPath)
	if err != nil {
		return nil, err
	}

	file, err := root.Open(filename)
	if err != nil {
		root.Close()
		return nil, err
	}

	return &SecureFile{file, root}, nil
}

// SecureCreate creates filename for writing, confined to rootPath
func SecureCreate(rootPath, filename string) (*SecureFile, error) {
	root, err := os.OpenRoot(rootPath)
	if err != nil {
		return nil, err
	}

	file, err := root.Create(filename)
	if err != nil {
		root.Close()
		return nil, err
	}

	return &SecureFile{file, root}, nil
}

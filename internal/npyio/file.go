package npyio

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// SaveFloat64s writes v to path and syncs the file to stable storage
// before returning.
func SaveFloat64s(path string, v []float64, shape ...int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteFloat64s(f, v, shape...); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %v", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// LoadFloat64s reads a float array from path. Errors from opening the file
// are returned unwrapped so callers can test them with os.IsNotExist.
func LoadFloat64s(path string) ([]float64, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()

	v, h, err := ReadFloat64s(bufio.NewReader(f))
	if err != nil {
		return nil, h, errors.Wrapf(err, "reading %v", path)
	}

	return v, h, nil
}

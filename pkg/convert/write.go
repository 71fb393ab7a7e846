package convert

import (
	"os"
	"path/filepath"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
)

// Outcome describes a conversion that was written to disk.
type Outcome struct {
	Source     detect.Candidate
	Target     Target
	OutputPath string
	Changed    bool
	Lossy      int
	Bytes      int
}

// WriteFile writes converted bytes to output. The output must be a new file
// and must not be the original.
func WriteFile(original, output string, data []byte) error {
	same, err := samePath(original, output)
	if err != nil {
		return errors.UnwritableOutput(output, err)
	}
	if same {
		return errors.New(errors.CodeUnwritableOutput, "output path is the original file").
			WithContext("path", output)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.UnwritableOutput(output, err)
	}

	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.UnwritableOutput(output, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(output)
		return errors.UnwritableOutput(output, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(output)
		return errors.UnwritableOutput(output, err)
	}
	return nil
}

// samePath compares two paths after making them absolute. When both exist,
// os.SameFile also catches links.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if filepath.Clean(absA) == filepath.Clean(absB) {
		return true, nil
	}

	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA == nil && errB == nil {
		return os.SameFile(infoA, infoB), nil
	}
	return false, nil
}

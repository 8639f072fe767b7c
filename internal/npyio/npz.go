package npyio

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// MakeNPZ bundles the given files into a single .npz archive at output.
// Members are keyed by their name inside the archive.
func MakeNPZ(output string, npyFiles map[string]string) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}

	b := bufio.NewWriter(f)
	z := zip.NewWriter(b)
	names := make([]string, 0, len(npyFiles))
	for name := range npyFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := addMember(z, name, npyFiles[name]); err != nil {
			f.Close()
			return errors.Wrapf(err, "adding %v to %v", name, output)
		}
	}

	if err := z.Close(); err != nil {
		f.Close()
		return err
	}
	if err := b.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addMember(z *zip.Writer, name, path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := z.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, r)
	return err
}

// ExtractNPZ unpacks every member of the archive into dir.
// It returns the names of the extracted members.
func ExtractNPZ(archive, dir string) ([]string, error) {
	z, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var names []string
	for _, member := range z.File {
		name := filepath.Base(member.Name)
		if name != member.Name || strings.HasPrefix(name, ".") {
			return nil, errors.Errorf("refusing to extract member %q", member.Name)
		}

		if err := extractMember(member, filepath.Join(dir, name)); err != nil {
			return nil, errors.Wrapf(err, "extracting %v", member.Name)
		}
		names = append(names, name)
	}

	return names, nil
}

func extractMember(member *zip.File, path string) error {
	r, err := member.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Encode returns the indented canonical bytes of v and the hash of its
// compact canonical form under domain.
func Encode(domain string, v any) (data []byte, hash string, err error) {
	canon, err := MarshalCanonical(v)
	if err != nil {
		return nil, "", err
	}
	data, err = indent(canon)
	if err != nil {
		return nil, "", err
	}
	return data, Hash(domain, canon), nil
}

// Write encodes v and writes it to path atomically. It returns the
// content hash.
func Write(path, domain string, v any) (string, error) {
	data, hash, err := Encode(domain, v)
	if err != nil {
		return "", err
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return hash, nil
}

// WriteReport writes r to path atomically and returns its content hash.
func WriteReport(path string, r *Report) (string, error) {
	data, hash, err := r.Encode()
	if err != nil {
		return "", err
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return hash, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// indent lays canonical JSON out two spaces per level with a trailing
// newline. Key order and string contents are left untouched.
func indent(canon []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, canon, "", "  "); err != nil {
		return nil, fmt.Errorf("indent: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

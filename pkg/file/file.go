package file

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileOperations defines the file access used for configuration, identity and certificates.
type FileOperations interface {
	IsFileExists(filePath string) (bool, error)
	ReadFileRaw(filePath string) ([]byte, error)
	ReadJsonFile(filePath string, v any) error
	ReadYamlFile(filePath string, v any) error
	WriteJsonFile(filePath string, data any) error
	WriteYamlFile(filePath string, data any) error
}

// FileService implements FileOperations on the local file system.
type FileService struct{}

// NewFileService creates a new instance of FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// IsFileExists reports whether filePath exists. Errors other than "not exist" are returned.
func (fs *FileService) IsFileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// ReadFileRaw returns the contents of filePath.
func (fs *FileService) ReadFileRaw(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// ReadJsonFile decodes the JSON document in filePath into v.
func (fs *FileService) ReadJsonFile(filePath string, v any) error {
	return decodeFile(filePath, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// ReadYamlFile decodes the YAML document in filePath into v.
func (fs *FileService) ReadYamlFile(filePath string, v any) error {
	return decodeFile(filePath, func(r io.Reader) error {
		return yaml.NewDecoder(r).Decode(v)
	})
}

// WriteJsonFile replaces filePath with the indented JSON encoding of data.
func (fs *FileService) WriteJsonFile(filePath string, data any) error {
	return writeAtomic(filePath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	})
}

// WriteYamlFile replaces filePath with the YAML encoding of data.
func (fs *FileService) WriteYamlFile(filePath string, data any) error {
	return writeAtomic(filePath, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	})
}

func decodeFile(filePath string, decode func(io.Reader) error) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := decode(f); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	return nil
}

// writeAtomic encodes into a temporary file next to filePath and renames it into place.
func writeAtomic(filePath string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tempFile := filePath + ".tmp"
	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, filePath)
}

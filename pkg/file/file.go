package file

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// FileOperations defines the file access the agent needs.
type FileOperations interface {
	IsFileExists(filePath string) (bool, error)
	ReadFileRaw(filePath string) ([]byte, error)
	ReadJsonFile(filePath string, v any) error
	ReadYamlFile(filePath string, v any) error
	WriteJsonFile(filePath string, data any) error
}

// FileService implements FileOperations on the local filesystem.
type FileService struct{}

// NewFileService creates a new instance of FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// IsFileExists reports whether filePath exists. Permission errors are returned.
func (s *FileService) IsFileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// ReadFileRaw returns the contents of filePath.
func (s *FileService) ReadFileRaw(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// ReadJsonFile reads and unmarshals JSON data from the given file.
func (s *FileService) ReadJsonFile(filePath string, v any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(v)
}

// ReadYamlFile reads and unmarshals YAML data from the given file.
func (s *FileService) ReadYamlFile(filePath string, v any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(v)
}

// WriteJsonFile writes data as indented JSON, replacing filePath atomically.
func (s *FileService) WriteJsonFile(filePath string, data any) error {
	tempFile := filePath + ".tmp"

	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
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

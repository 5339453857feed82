package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoFile describes one stored contribution photo.
type PhotoFile struct {
	Name string `json:"name" doc:"Stored file name" example:"20260115T083000_pothole.jpg"`
	Size string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
}

// PhotoService stores contribution photos on disk under the data
// directory. The stored name is returned so it can be recorded on the
// contribution.
type PhotoService struct {
	photosDir string
}

// NewPhotoService creates a photo service rooted at dataDir/photos.
func NewPhotoService(dataDir string) *PhotoService {
	return &PhotoService{
		photosDir: filepath.Join(dataDir, "photos"),
	}
}

// Save writes a photo and returns its stored name. The name is built
// from the receive time plus a sanitized hint from the upload.
func (s *PhotoService) Save(originalName string, data []byte) (string, error) {
	if err := validateFilename(originalName); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("unsupported photo type: %s", ext)
	}

	if err := os.MkdirAll(s.photosDir, 0755); err != nil {
		return "", fmt.Errorf("create photos directory: %w", err)
	}

	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	name := time.Now().UTC().Format("20060102T150405") + "_" + generateID(base) + ext
	if err := os.WriteFile(filepath.Join(s.photosDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return name, nil
}

// Open returns the stored photo's path for serving, after validating
// the name.
func (s *PhotoService) Path(name string) (string, error) {
	if err := validateFilename(name); err != nil {
		return "", err
	}
	p := filepath.Join(s.photosDir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("photo %q not found", name)
	}
	return p, nil
}

// List returns all stored photos.
func (s *PhotoService) List() ([]PhotoFile, error) {
	entries, err := os.ReadDir(s.photosDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PhotoFile{}, nil
		}
		return nil, err
	}

	var files []PhotoFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, PhotoFile{
			Name: entry.Name(),
			Size: formatSize(info.Size()),
		})
	}
	return files, nil
}

// PhotosDir returns the path to the photos directory.
func (s *PhotoService) PhotosDir() string {
	return s.photosDir
}

// validateFilename rejects names that could escape the photos
// directory.
func validateFilename(name string) error {
	if name == "" ||
		strings.Contains(name, "/") ||
		strings.Contains(name, "\\") ||
		strings.Contains(name, "..") {
		return fmt.Errorf("invalid filename")
	}
	return nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Maximum upload size (10MB)
	MaxImageSize = 10 * 1024 * 1024
	// Hero images wider than this are scaled down
	maxHeroWidth = 1800
	heroSubDir   = "hero"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	filename = filepath.Base(filename)
	return unsafeFilenameChars.ReplaceAllString(filename, "")
}

// ValidateImageType checks if the file extension is an allowed image format
func ValidateImageType(filename string) error {
	ext := strings.ToLower(filepath.Ext(cleanFilename(filename)))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// InitializeStorage creates the upload directories
func InitializeStorage(baseDir string) error {
	if err := os.MkdirAll(filepath.Join(baseDir, heroSubDir), 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %v", err)
	}
	return nil
}

// SaveHeroImage re-encodes an uploaded image as JPEG, at most maxHeroWidth
// wide, and returns its public URL under urlPrefix.
func SaveHeroImage(data []byte, baseDir, urlPrefix string) (string, error) {
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}
	if img.Bounds().Dx() > maxHeroWidth {
		img = imaging.Resize(img, maxHeroWidth, 0, imaging.Lanczos)
	}

	name := "hero_" + uuid.NewString() + ".jpg"
	dir := filepath.Join(baseDir, heroSubDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := imaging.Save(img, filepath.Join(dir, name), imaging.JPEGQuality(82)); err != nil {
		return "", fmt.Errorf("failed to save image: %v", err)
	}
	return strings.TrimRight(urlPrefix, "/") + "/" + heroSubDir + "/" + name, nil
}

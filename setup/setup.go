// Package setup provisions the external components a match depends on:
// the engine bundle, a Java runtime for jar bots and the launcher tools.
// A component is either already present, or downloaded once into a cache,
// checksum-verified and unpacked.
package setup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bwshotgun/applog"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// Component describes one downloadable third-party bundle. Hashes lists
// every accepted SHA-256 of the archive; releases get re-packed upstream
// now and then, so multiple digests can be valid at once.
type Component struct {
	Name         string
	DownloadName string
	DownloadURL  string
	Hashes       []string
	InternalDir  string
	// StripRoot drops the archive's single top-level directory while
	// unpacking.
	StripRoot bool
}

// Provide returns the component's directory, downloading and unpacking it
// first when missing. The archive cache survives in cacheDir, so a wiped
// install reuses the verified download.
func (c *Component) Provide(client *resty.Client, cacheDir string) (string, error) {
	if _, err := os.Stat(c.InternalDir); err == nil {
		applog.Debug("Using internal component", zap.String("component", c.Name))
		return c.InternalDir, nil
	}

	if err := os.MkdirAll(cacheDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("could not create download cache '%s': %v", cacheDir, err)
	}
	archive := filepath.Join(cacheDir, c.DownloadName)

	ok, err := verifyHashes(archive, c.Hashes)
	if err != nil {
		return "", err
	}
	if !ok {
		applog.Info("Downloading component",
			zap.String("component", c.Name),
			zap.String("url", c.DownloadURL),
			zap.String("to", archive))
		if err := c.download(client, archive); err != nil {
			return "", err
		}
		ok, err = verifyHashes(archive, c.Hashes)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("hash check of downloaded %s failed, aborting", c.Name)
		}
	}

	applog.Info("Unpacking component",
		zap.String("archive", archive),
		zap.String("to", c.InternalDir))
	if err := unzip(archive, c.InternalDir, c.StripRoot); err != nil {
		return "", fmt.Errorf("could not unpack %s: %v", c.Name, err)
	}
	return c.InternalDir, nil
}

func (c *Component) download(client *resty.Client, dest string) error {
	resp, err := client.R().Get(c.DownloadURL)
	if err != nil {
		return fmt.Errorf("downloading %s failed: %v", c.Name, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("downloading %s failed: %v", c.Name, resp.Status())
	}

	body := resp.Bytes()
	if err := os.WriteFile(dest, body, 0644); err != nil {
		return fmt.Errorf("could not store download '%s': %v", dest, err)
	}
	applog.Debug("Downloaded component distribution",
		zap.String("component", c.Name),
		zap.Int("bytes", len(body)))
	return nil
}

// verifyHashes reports whether the file exists and its SHA-256 is in
// hashes. A missing file is simply not verified, not an error.
func verifyHashes(path string, hashes []string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, fmt.Errorf("could not hash '%s': %v", path, err)
	}
	digest := hex.EncodeToString(hasher.Sum(nil))

	for _, expected := range hashes {
		if digest == expected {
			return true, nil
		}
	}
	return false, nil
}

func unzip(archive string, dest string, stripRoot bool) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer func(r *zip.ReadCloser) {
		_ = r.Close()
	}(r)

	for _, file := range r.File {
		name := file.Name
		if stripRoot {
			if i := indexAfterRoot(name); i < 0 {
				continue
			} else {
				name = name[i:]
			}
		}
		outPath, err := sanitizePath(dest, name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
			return err
		}
		if err := extractFile(file, outPath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, outPath string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer func(in io.ReadCloser) {
		_ = in.Close()
	}(in)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func(out *os.File) {
		_ = out.Close()
	}(out)

	_, err = io.Copy(out, in)
	return err
}

// indexAfterRoot returns the offset past the first path separator, or -1
// for the root entry itself.
func indexAfterRoot(name string) int {
	for i, c := range name {
		if c == '/' {
			if i+1 >= len(name) {
				return -1
			}
			return i + 1
		}
	}
	return -1
}

// sanitizePath rejects entries escaping the destination (zip slip).
func sanitizePath(dest string, name string) (string, error) {
	outPath := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, outPath)
	if err != nil || rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("archive entry '%s' escapes destination", name)
	}
	return outPath, nil
}

package main

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// probeSize is how much of a file is inspected for null bytes.
const probeSize = 1024

// nonTextExtensions lists lowercase extensions that are never treated as text.
// It is initialised once and never mutated.
var nonTextExtensions = func() map[string]struct{} {
	exts := []string{
		// Images
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".ico", ".heic", ".heif",
		// Audio
		".mp3", ".wav", ".aac", ".ogg", ".flac", ".m4a", ".wma", ".aiff",
		// Video
		".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm", ".mpeg", ".mpg",
		// Archives
		".zip", ".rar", ".tar", ".gz", ".bz2", ".7z", ".xz", ".iso", ".dmg",
		// Executables and libraries
		".exe", ".dll", ".so", ".dylib", ".app", ".msi",
		// Compiled code and objects
		".o", ".obj", ".class", ".pyc", ".pyo", ".wasm",
		// Documents
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp",
		// Databases
		".sqlite", ".db", ".mdb", ".accdb", ".dat",
		// Fonts
		".ttf", ".otf", ".woff", ".woff2", ".eot",
		// Serialized data and models
		".bin", ".pickle", ".pkl", ".joblib", ".h5", ".hdf5", ".parquet", ".avro",
		".feather", ".arrow", ".model", ".pt", ".pth", ".pb", ".onnx", ".sav", ".dta",
		// Everything else
		".idx", ".pack", ".deb", ".rpm", ".jar", ".war", ".ear", ".swf", ".psd", ".ai",
		".indd", ".blend", ".dwg", ".dxf", ".skp", ".stl", ".fbx", ".gltf", ".glb",
		".swp", ".lock",
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}()

// hasBinaryExtension reports whether path has a known non-text extension.
// It performs no I/O.
func hasBinaryExtension(path string) bool {
	_, ok := nonTextExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// isBinary classifies a file as non-text, first by extension and then by
// looking for a null byte in the first probeSize bytes. Files that cannot be
// probed are reported as binary so their content never reaches the output.
func isBinary(path string) bool {
	if hasBinaryExtension(path) {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		warnProbe(path, err)
		return true
	}
	defer f.Close()

	buf := make([]byte, probeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		warnProbe(path, err)
		return true
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}

func warnProbe(path string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warnw("file disappeared before binary check", "path", path)
	case errors.Is(err, fs.ErrPermission):
		logger.Warnw("permission denied during binary check", "path", path)
	case errors.Is(err, syscall.EISDIR):
		logger.Warnw("path is a directory, not a file", "path", path)
	default:
		logger.Warnw("could not read file to check for binary content", "path", path, "error", err)
	}
}

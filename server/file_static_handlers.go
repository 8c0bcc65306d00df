package server

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
)

//go:embed static/*
var staticFiles embed.FS

// staticAsset is an embedded file with its validator and content type worked out once.
type staticAsset struct {
	data        []byte
	etag        string
	contentType string
}

// staticAssets indexes every embedded file by its path below static/.
var staticAssets = sync.OnceValues(func() (map[string]staticAsset, error) {
	assets := map[string]staticAsset{}
	err := fs.WalkDir(StaticFilesFS(), ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(StaticFilesFS(), name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		assets[name] = staticAsset{
			data:        data,
			etag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
			contentType: assetContentType(name, data),
		}
		return nil
	})
	return assets, err
})

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

func assetContentType(name string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}

// StreamFile writes an embedded asset, answering 304 when the client's ETag matches.
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	assets, err := staticAssets()
	if err != nil {
		return fmt.Errorf("index static assets: %w", err)
	}
	asset, ok := assets[fileName]
	if !ok {
		return fmt.Errorf("%s: %w", fileName, fs.ErrNotExist)
	}

	w.Header().Set("ETag", asset.etag)
	if r.Header.Get("If-None-Match") == asset.etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	w.Header().Set("Content-Type", asset.contentType)
	if _, err := w.Write(asset.data); err != nil {
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	return nil
}

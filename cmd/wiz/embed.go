package main

import (
	"io"

	"github.com/wiz-lang/wiz/internal/resource"
)

// resourceEmbedReader adapts a resource.Manager to the narrow
// compiler.EmbedReader interface `embed "path"` expressions fold
// through, searching the same include directories an import would.
type resourceEmbedReader struct {
	manager    resource.Manager
	searchDirs []string
}

func (r resourceEmbedReader) ReadEmbed(path string) ([]byte, error) {
	res, err := r.manager.ReadFile(path, r.searchDirs)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return io.ReadAll(res)
}

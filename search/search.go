// Package search trawls a directory tree (local filesystem or an object
// store TileDB's VFS layer can reach) for Finnigan RAW files.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recurses through uri, appending every file whose basename matches
// pattern to items. Grounded on the teacher's own trawl (search/search.go):
// same VFS-driven recursion, only the match pattern changes.
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) []string {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		panic(err)
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			panic(err)
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items = trawl(vfs, pattern, dir, items)
	}

	return items
}

// FindRaw recursively searches for *.raw files under uri, using TileDB's VFS
// so the same code path works against local filesystems or object stores. A
// TileDB config is required when searching permission-constrained object
// stores.
func FindRaw(uri string, configURI string) []string {
	var (
		config *tiledb.Config
		err    error
	)

	if configURI == "" {
		config, err = tiledb.NewConfig()
		if err != nil {
			panic(err)
		}
	} else {
		config, err = tiledb.LoadConfig(configURI)
		if err != nil {
			panic(err)
		}
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		panic(err)
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		panic(err)
	}
	defer vfs.Free()

	items := make([]string, 0)
	return trawl(vfs, "*.raw", uri, items)
}

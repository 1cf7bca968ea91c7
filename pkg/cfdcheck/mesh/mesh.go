// Package mesh reads cell counts from OpenFOAM case directories.
//
// The cell count of a polyMesh is recorded in the note of the owner file
// header ("nPoints:... nCells:..."). Meshes written without a note fall back
// to the owner list itself when it is stored as ASCII.
package mesh

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

var (
	// ErrNoMesh is returned when a case directory holds no polyMesh owner file.
	ErrNoMesh = errors.New("no polyMesh owner file found")

	// ErrUnparseableHeader is returned when an owner file carries neither an
	// nCells note nor an ASCII owner list.
	ErrUnparseableHeader = errors.New("cannot determine cell count from owner file")
)

// Count is the cell count of a case.
type Count struct {
	// Cells is the total number of cells.
	Cells int64

	// Sources lists the owner files that were read.
	Sources []string

	// Decomposed is true when the count was summed over processor directories.
	Decomposed bool
}

var ownerNames = []string{"owner", "owner.gz"}

// CellCount returns the number of cells of the OpenFOAM case at caseDir.
// The serial mesh in constant/polyMesh wins; otherwise the meshes of every
// processor* directory are summed.
func CellCount(ctx context.Context, caseDir string) (Count, error) {
	root, err := validateRoot(caseDir)
	if err != nil {
		return Count{}, fmt.Errorf("reading case %s: %w", caseDir, err)
	}
	log := logging.Get("mesh")

	if path, ok := findOwner(filepath.Join(root, "constant", "polyMesh")); ok {
		cells, err := ReadOwner(path)
		if err != nil {
			return Count{}, err
		}
		log.Debug("read serial mesh", "path", path, "cells", cells)
		return Count{Cells: cells, Sources: []string{path}}, nil
	}

	owners, err := processorOwners(ctx, root)
	if err != nil {
		return Count{}, err
	}
	if len(owners) == 0 {
		return Count{}, fmt.Errorf("%w in %s", ErrNoMesh, caseDir)
	}

	var total int64
	for _, path := range owners {
		if err := ctx.Err(); err != nil {
			return Count{}, err
		}
		cells, err := ReadOwner(path)
		if err != nil {
			return Count{}, err
		}
		total += cells
	}
	log.Debug("read decomposed mesh", "processors", len(owners), "cells", total)

	return Count{Cells: total, Sources: owners, Decomposed: true}, nil
}

// validateRoot resolves the case path to absolute and verifies it is a directory.
func validateRoot(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", root, os.ErrInvalid)
	}
	return root, nil
}

func findOwner(dir string) (string, bool) {
	for _, name := range ownerNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// processorOwners walks the top level processor* directories in parallel and
// returns their owner files in sorted order.
func processorOwners(ctx context.Context, root string) ([]string, error) {
	conf := fastwalk.Config{
		Follow: false,
	}

	var (
		mu     sync.Mutex
		owners = map[string]string{}
	)

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil //nolint:nilerr
		}
		parts := strings.Split(rel, string(filepath.Separator))

		if d.IsDir() {
			if !strings.HasPrefix(parts[0], "processor") {
				return filepath.SkipDir
			}
			// Only processorN/constant/polyMesh is of interest.
			if len(parts) == 2 && parts[1] != "constant" {
				return filepath.SkipDir
			}
			if len(parts) == 3 && parts[2] != "polyMesh" {
				return filepath.SkipDir
			}
			if len(parts) > 3 {
				return filepath.SkipDir
			}
			return nil
		}

		if len(parts) != 4 || (parts[3] != "owner" && parts[3] != "owner.gz") {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		// Prefer the uncompressed file when both are present.
		if prev, ok := owners[parts[0]]; !ok || strings.HasSuffix(prev, ".gz") {
			owners[parts[0]] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	paths := make([]string, 0, len(owners))
	for _, p := range owners {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadOwner returns the cell count recorded in an owner file. Files ending in
// .gz are decompressed.
func ReadOwner(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening owner file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	cells, err := ParseOwner(r)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return cells, nil
}

var nCellsPattern = regexp.MustCompile(`nCells:\s*(\d+)`)

// ParseOwner reads an owner file stream and returns its cell count.
func ParseOwner(r io.Reader) (int64, error) {
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return 0, err
	}
	if m := nCellsPattern.FindStringSubmatch(h.note); m != nil {
		return strconv.ParseInt(m[1], 10, 64)
	}
	if h.format != "" && h.format != "ascii" {
		return 0, fmt.Errorf("%w: %s owner without nCells note", ErrUnparseableHeader, h.format)
	}
	return maxOwner(br)
}

type header struct {
	format string
	note   string
}

// readHeader consumes the FoamFile dictionary and returns its entries of
// interest. A file without a FoamFile block is rejected.
func readHeader(br *bufio.Reader) (header, error) {
	var (
		h      header
		inside bool
	)
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimSpace(line)

		switch {
		case !inside && strings.HasPrefix(trimmed, "FoamFile"):
			inside = true
		case inside && strings.HasPrefix(trimmed, "}"):
			return h, nil
		case inside:
			key, value, ok := strings.Cut(trimmed, " ")
			if ok {
				value = strings.Trim(strings.TrimSpace(value), `";`)
				switch key {
				case "format":
					h.format = value
				case "note":
					h.note = value
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return h, fmt.Errorf("%w: missing FoamFile header", ErrUnparseableHeader)
			}
			return h, err
		}
	}
}

// maxOwner scans an ASCII owner list "N ( i0 i1 ... )" and returns the
// highest cell index plus one.
func maxOwner(br *bufio.Reader) (int64, error) {
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		size    int64 = -1
		seen    int64
		highest int64 = -1
	)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.NewReplacer("(", " ", ")", " ").Replace(line)

		for _, field := range strings.Fields(line) {
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: unexpected token %q", ErrUnparseableHeader, field)
			}
			if size < 0 {
				size = n
				continue
			}
			if n > highest {
				highest = n
			}
			seen++
			if seen == size {
				return highest + 1, nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("%w: truncated owner list", ErrUnparseableHeader)
}

package terrain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadASCIIGrid parses an ESRI ASCII raster (ncols, nrows, cellsize and an
// optional NODATA_value header followed by row-major values). NODATA cells
// are set to zero elevation.
func ReadASCIIGrid(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var values []float64
	var pending string
	for sc.Scan() {
		tok := sc.Text()
		if len(values) == 0 && pending == "" && isHeaderKey(tok) {
			pending = strings.ToLower(tok)
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("terrain: parse %q: %w", tok, err)
		}
		if pending != "" {
			header[pending] = v
			pending = ""
			continue
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("terrain: read grid: %w", err)
	}
	cols, rows := int(header["ncols"]), int(header["nrows"])
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: missing ncols/nrows header", ErrShape)
	}
	if nodata, ok := header["nodata_value"]; ok {
		for i, v := range values {
			if v == nodata {
				values[i] = 0
			}
		}
	}
	return New(rows, cols, values, header["cellsize"])
}

// LoadASCIIGrid reads an ESRI ASCII raster from path.
func LoadASCIIGrid(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func isHeaderKey(tok string) bool {
	switch strings.ToLower(tok) {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

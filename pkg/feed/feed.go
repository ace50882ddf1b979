// Package feed parses the pipe-delimited stock feed into product groups.
package feed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/product"
)

// Separator splits the fields of a feed line.
const Separator = "|"

// MinFields is the number of fields a usable feed line carries.
const MinFields = 10

// Field positions within a feed line.
const (
	fieldSKU = iota
	fieldEAN
	fieldName
	fieldBrand
	fieldCategory
	fieldGender
	fieldColor
	fieldSize
	fieldInventory
	fieldPrice
)

// maxLineSize bounds a single feed line. Longer lines are skipped.
const maxLineSize = 1024 * 1024

const readBufferSize = 64 * 1024

var (
	// ErrTooFewFields is returned for lines with fewer than MinFields fields.
	ErrTooFewFields = errors.New("too few fields")

	// ErrInvalidInventory is returned when the inventory field is not an integer.
	ErrInvalidInventory = errors.New("invalid inventory")

	// ErrNoStock is returned for rows whose inventory is zero or negative.
	ErrNoStock = errors.New("no stock")

	// ErrLineTooLong is reported for lines longer than maxLineSize bytes.
	ErrLineTooLong = errors.New("line too long")
)

// Row is one parsed feed line.
type Row struct {
	SKU       string
	EAN       string
	Name      string
	Brand     string
	Category  string
	Gender    string
	Color     string
	Size      string
	Inventory int
	Price     decimal.Decimal
}

/*
Stats describes one parse pass.

Fields:
  - Lines:           Lines read from the feed, blank ones included.
  - Accepted:        Rows that contributed a variant.
  - TooFewFields:    Lines rejected for having fewer than MinFields fields.
  - InvalidInventory: Lines rejected for a non-numeric inventory.
  - NoStock:         Lines rejected for inventory <= 0.
  - TooLong:         Lines rejected for exceeding the line size limit.
  - Groups:          Distinct (ean, color) groups produced.
*/
type Stats struct {
	Lines            int `json:"lines"`
	Accepted         int `json:"accepted"`
	TooFewFields     int `json:"tooFewFields"`
	InvalidInventory int `json:"invalidInventory"`
	NoStock          int `json:"noStock"`
	TooLong          int `json:"tooLong"`
	Groups           int `json:"groups"`
}

// Rejected returns the number of lines that were skipped.
func (s Stats) Rejected() int {
	return s.TooFewFields + s.InvalidInventory + s.NoStock + s.TooLong
}

// ParseLine parses a single feed line into a Row.
func ParseLine(line string) (Row, error) {
	parts := strings.Split(line, Separator)
	if len(parts) < MinFields {
		return Row{}, fmt.Errorf("%w: got %d, want at least %d", ErrTooFewFields, len(parts), MinFields)
	}

	inventory, err := strconv.Atoi(strings.TrimSpace(parts[fieldInventory]))
	if err != nil {
		return Row{}, fmt.Errorf("%w %q", ErrInvalidInventory, parts[fieldInventory])
	}
	if inventory <= 0 {
		return Row{}, fmt.Errorf("%w: inventory %d", ErrNoStock, inventory)
	}

	return Row{
		SKU:       parts[fieldSKU],
		EAN:       parts[fieldEAN],
		Name:      parts[fieldName],
		Brand:     parts[fieldBrand],
		Category:  parts[fieldCategory],
		Gender:    parts[fieldGender],
		Color:     parts[fieldColor],
		Size:      parts[fieldSize],
		Inventory: inventory,
		Price:     ParsePrice(parts[fieldPrice]),
	}, nil
}

// ParsePrice strips thousands separators and parses the price. Unparseable
// prices yield zero rather than an error.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// Parser groups feed rows into products.
type Parser struct {
	logger *zap.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the logger used for per-line notices and the final count.
func WithLogger(logger *zap.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

/*
Parse reads feed lines from r and groups them by (ean, color).

Groups are returned in the order their key was first seen. The first row of a
key fixes the group's name, SKU and price; every accepted row appends one
variant. Rejected lines are logged and counted, never fatal. Only a read
failure on r is returned as an error.
*/
func (p *Parser) Parse(r io.Reader) ([]product.Group, Stats, error) {
	var (
		stats  Stats
		groups []product.Group
		index  = make(map[string]int)
	)

	br := bufio.NewReaderSize(r, readBufferSize)

	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return groups, stats, fmt.Errorf("failed to read feed at line %d: %w", stats.Lines+1, err)
		}
		stats.Lines++

		if tooLong {
			p.reject(&stats, fmt.Errorf("%w: over %d bytes", ErrLineTooLong, maxLineSize), "")
			continue
		}
		line = strings.TrimSuffix(line, "\r")
		if stats.Lines == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}

		row, err := ParseLine(line)
		if err != nil {
			p.reject(&stats, err, line)
			continue
		}
		stats.Accepted++

		key := product.GroupKey(row.EAN, row.Color)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, product.Group{
				Name:              product.GroupName(row.Name, row.Color, row.EAN),
				SKU:               row.SKU,
				Price:             row.Price,
				MPN:               row.EAN,
				InventoryTracking: product.InventoryTrackingVariant,
				IsVisible:         false,
				Variants:          []product.Variant{},
			})
		}

		groups[i].Variants = append(groups[i].Variants, product.Variant{
			SKU:            product.VariantSKU(row.EAN, row.Color, row.Size),
			Price:          row.Price,
			MPN:            row.EAN,
			InventoryLevel: row.Inventory,
			OptionValues:   []product.OptionValue{product.SizeOption(row.Size)},
		})
	}

	stats.Groups = len(groups)
	p.logger.Info(fmt.Sprintf("Organized %d products into parent-child structures.", stats.Groups),
		zap.Int("lines", stats.Lines),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected()),
	)
	return groups, stats, nil
}

// reject counts a skipped line under its reason.
func (p *Parser) reject(stats *Stats, err error, line string) {
	switch {
	case errors.Is(err, ErrTooFewFields):
		stats.TooFewFields++
		// Blank and header-like lines are routine; keep them out of the info log.
		p.logger.Debug("Skipping feed line", zap.Int("line", stats.Lines), zap.Error(err))
		return
	case errors.Is(err, ErrNoStock):
		stats.NoStock++
		p.logger.Debug("Skipping feed line", zap.Int("line", stats.Lines), zap.Error(err))
		return
	case errors.Is(err, ErrLineTooLong):
		stats.TooLong++
		p.logger.Warn("Error processing a product", zap.Int("line", stats.Lines), zap.Error(err))
		return
	case errors.Is(err, ErrInvalidInventory):
		stats.InvalidInventory++
	}
	p.logger.Warn("Error processing a product",
		zap.Int("line", stats.Lines),
		zap.String("content", line),
		zap.Error(err),
	)
}

/*
readLine returns the next line from br without its "\n" terminator.

A line longer than maxLineSize is read through to its end and discarded;
tooLong is then true and line is empty. io.EOF is returned only once no
bytes remain.
*/
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var (
		buf  []byte
		read bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineSize+1 {
				tooLong, buf = true, nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && (err != io.EOF || !read) {
			return "", false, err
		}
		break
	}

	if tooLong {
		return "", true, nil
	}
	line = strings.TrimSuffix(string(buf), "\n")
	if len(line) > maxLineSize {
		return "", true, nil
	}
	return line, false, nil
}

// ParseFile opens the feed at path and parses it.
func (p *Parser) ParseFile(path string) ([]product.Group, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open feed %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

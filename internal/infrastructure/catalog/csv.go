package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// Columnas esperadas del archivo de catálogo (encabezado obligatorio, orden libre).
var csvColumns = []string{"id", "tipo", "nombre", "unidad", "costo_unitario", "maneja_lotes"}

// ReadCSV lee ítems de catálogo desde un CSV separado por coma o punto y coma.
// Los archivos exportados desde Excel suelen venir en ISO-8859-1; si el contenido no es
// UTF-8 válido se decodifica como Latin-1.
func ReadCSV(r io.Reader) ([]entity.CatalogItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")) // BOM
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	// Los separadores son ASCII: se detectan igual en ambas codificaciones.
	first := raw[:firstLineLen(raw)]
	cr := csv.NewReader(src)
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range csvColumns[:3] {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("columna requerida ausente: %s", col)
		}
	}

	var items []entity.CatalogItem
	seen := map[string]int{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		it, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if prev, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("línea %d: id %s repetido (línea %d)", line, it.ID, prev)
		}
		seen[it.ID] = line
		items = append(items, it)
	}
	return items, nil
}

func parseRow(rec []string, idx map[string]int) (entity.CatalogItem, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	it := entity.CatalogItem{
		ID:   get("id"),
		Kind: entity.ItemKind(strings.ToLower(get("tipo"))),
		Name: get("nombre"),
		Unit: get("unidad"),
	}
	if it.ID == "" || it.Name == "" {
		return it, fmt.Errorf("id y nombre son obligatorios")
	}
	if it.Kind != entity.ItemKindProduct && it.Kind != entity.ItemKindIngredient {
		return it, fmt.Errorf("tipo inválido %q (producto|ingrediente)", it.Kind)
	}
	it.UnitCost = decimal.Zero
	if c := get("costo_unitario"); c != "" {
		cost, err := decimal.NewFromString(strings.ReplaceAll(c, ",", "."))
		if err != nil || cost.IsNegative() {
			return it, fmt.Errorf("costo_unitario inválido %q", c)
		}
		it.UnitCost = cost
	}
	if l := get("maneja_lotes"); l != "" {
		switch strings.ToLower(l) {
		case "si", "sí", "s", "x":
			it.TracksLots = true
		case "no", "n":
		default:
			b, err := strconv.ParseBool(l)
			if err != nil {
				return it, fmt.Errorf("maneja_lotes inválido %q", l)
			}
			it.TracksLots = b
		}
	}
	return it, nil
}

func firstLineLen(raw []byte) int {
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		return i
	}
	return len(raw)
}

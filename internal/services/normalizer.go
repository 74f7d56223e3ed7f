package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field aliases, expressed as normalized header keys. The first alias present in a row wins.
var (
	ncmAliases          = []string{"ncm", "codigoncm"}
	cfopAliases         = []string{"cfop", "codigocfop"}
	cClasstribAliases   = []string{"cclasstribsugerido", "cclasstrib"}
	qtdRegistrosAliases = []string{"qtdregistros"}
	statusAliases       = []string{"status"}
	descricaoAliases    = []string{"descricao", "descricaoproduto"}
	nomeProdutoAliases  = []string{"nomeproduto"}
)

// NormalizeKey folds a header into its canonical form: diacritics removed, lowercased,
// everything but [a-z0-9] stripped. "Código NCM", "codigo_ncm" and "CODIGONCM" all become "codigoncm".
func NormalizeKey(key string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, key)
	if err != nil {
		folded = key
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RawRow is one data row keyed by normalized header. A missing key means the cell was absent.
type RawRow map[string]string

// NormalizeHeaders maps each column index to its normalized key. Empty headers map to "".
// Several columns may share a key; BuildRow resolves them.
func NormalizeHeaders(headers []string) []string {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = NormalizeKey(h)
	}
	return keys
}

// BuildRow zips normalized header keys with a row's cells. Empty cells are treated as absent,
// and when several columns share a key the last non-empty one wins.
func BuildRow(keys []string, cells []string) RawRow {
	row := make(RawRow, len(keys))
	for i, k := range keys {
		if k == "" || i >= len(cells) {
			continue
		}
		if cells[i] == "" {
			continue
		}
		row[k] = cells[i]
	}
	return row
}

// lookup returns the first alias present in the row
func (r RawRow) lookup(aliases []string) (string, bool) {
	for _, a := range aliases {
		if v, ok := r[a]; ok {
			return v, true
		}
	}
	return "", false
}

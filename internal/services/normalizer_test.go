package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NCM", "ncm"},
		{"Código NCM", "codigoncm"},
		{"codigo_ncm", "codigoncm"},
		{"CFOP ", "cfop"},
		{"cClasstrib_sugerido", "cclasstribsugerido"},
		{"cClassTrib", "cclasstrib"},
		{"Qtd. Registros", "qtdregistros"},
		{"Descrição do Produto", "descricaodoproduto"},
		{"Descrição", "descricao"},
		{"nome_produto", "nomeproduto"},
		{"  ", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, key := range []string{"ncm", "codigoncm", "cfop", "cclasstribsugerido", "qtdregistros", "descricao", "nomeproduto", "status"} {
		assert.Equal(t, key, NormalizeKey(key))
		assert.Equal(t, NormalizeKey(key), NormalizeKey(NormalizeKey(key)))
	}
}

func TestNormalizeHeaders_KeepsDuplicates(t *testing.T) {
	keys := NormalizeHeaders([]string{"NCM", "", "ncm", "CFOP"})
	assert.Equal(t, []string{"ncm", "", "ncm", "cfop"}, keys)
}

func TestBuildRow(t *testing.T) {
	keys := []string{"ncm", "cfop", "status"}

	row := BuildRow(keys, []string{"1001", ""})
	assert.Equal(t, RawRow{"ncm": "1001"}, row)

	_, ok := row["cfop"]
	assert.False(t, ok, "empty cells are absent")
	_, ok = row["status"]
	assert.False(t, ok, "cells past the row length are absent")
}

func TestBuildRow_SharedKey(t *testing.T) {
	keys := []string{"ncm", "ncm", "cfop"}

	assert.Equal(t, RawRow{"ncm": "1001", "cfop": "5102"}, BuildRow(keys, []string{"", "1001", "5102"}))
	assert.Equal(t, RawRow{"ncm": "2002", "cfop": "5102"}, BuildRow(keys, []string{"2002", "", "5102"}))
	assert.Equal(t, RawRow{"ncm": "3004", "cfop": "5102"}, BuildRow(keys, []string{"3003", "3004", "5102"}))
}

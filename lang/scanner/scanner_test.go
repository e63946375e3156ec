package scanner_test

import (
	"testing"

	"github.com/mna/dicelang/lang/scanner"
	"github.com/mna/dicelang/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value) {
	t.Helper()
	var s scanner.Scanner
	var errs []string
	s.Init([]byte(src), func(span token.Span, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	var vals []token.Value
	for {
		var val token.Value
		tok := s.Scan(&val)
		if tok == token.EOF {
			break
		}
		toks = append(toks, tok)
		vals = append(vals, val)
	}
	require.Empty(t, errs)
	return toks, vals
}

func TestScanLiterals(t *testing.T) {
	toks, vals := scanAll(t, `42 3.5 "hi" true false null unit`)
	require.Equal(t, []token.Token{
		token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE, token.NULL, token.UNIT_LIT,
	}, toks)
	require.Equal(t, int64(42), vals[0].Int)
	require.InDelta(t, 3.5, vals[1].Float, 0)
	require.Equal(t, "hi", vals[2].Str)
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks, vals := scanAll(t, `let mut fn class x data`)
	require.Equal(t, []token.Token{
		token.LET, token.MUT, token.FN, token.CLASS, token.IDENT, token.IDENT,
	}, toks)
	require.Equal(t, "x", vals[4].Raw)
	require.Equal(t, "data", vals[5].Raw)
}

func TestScanDiceRollDisambiguation(t *testing.T) {
	toks, vals := scanAll(t, `d20 3d6 data d_foo`)
	require.Equal(t, []token.Token{
		token.DICE_ROLL, token.INT,
		token.INT, token.DICE_ROLL, token.INT,
		token.IDENT,
		token.IDENT,
	}, toks)
	require.Equal(t, int64(20), vals[1].Int)
	require.Equal(t, int64(3), vals[2].Int)
	require.Equal(t, int64(6), vals[4].Int)
	require.Equal(t, "data", vals[5].Raw)
	require.Equal(t, "d_foo", vals[6].Raw)
}

func TestScanOperatorsAndPunctuation(t *testing.T) {
	toks, _ := scanAll(t, `+ - * / % == != >= <= -> => ?? ! !! | || |> && .. ..=`)
	require.Equal(t, []token.Token{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQL, token.NEQ, token.GE, token.LE, token.ARROW, token.WIDE_ARROW,
		token.COALESCE, token.NOT, token.ERROR_PROP, token.PIPE, token.LAZY_OR,
		token.PIPELINE, token.LAZY_AND, token.RANGE_EXCL, token.RANGE_INCL,
	}, toks)
}

func TestScanStringEscapes(t *testing.T) {
	_, vals := scanAll(t, `"a\nb\tc\"d"`)
	require.Equal(t, "a\nb\tc\"d", vals[0].Str)
}

func TestScanLineComment(t *testing.T) {
	toks, _ := scanAll(t, "1 // a comment\n2")
	require.Equal(t, []token.Token{token.INT, token.INT}, toks)
}

func TestScanReportsErrorOnUnterminatedString(t *testing.T) {
	var s scanner.Scanner
	var errs []string
	s.Init([]byte(`"unterminated`), func(span token.Span, msg string) {
		errs = append(errs, msg)
	})
	var val token.Value
	s.Scan(&val)
	require.NotEmpty(t, errs)
}

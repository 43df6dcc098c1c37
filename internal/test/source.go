package test

import (
	"math/rand"
	"strings"
)

var validTokens = []string{
	"fn", "main", "compute", "(", ")", "{", "}", "->",
	"int", "double", "void",
	"let", "const", "x", "y", "counter",
	":", ";", "=", ",",
	"+", "-", "*", "/",
	"==", "!=", "<", ">", "<=", ">=",
	"while", "if", "else", "return",
	"0", "123", "98765", "4.5", "1.5e10", "2.0E-3",
	"//comment\n", "\n",
}

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	var toks []string
	for len(toks) < size {
		toks = append(toks, validTokens[rand.Intn(len(validTokens))])
	}

	return strings.Join(toks, sep)
}
